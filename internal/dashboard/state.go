package dashboard

import (
	"context"
	"errors"
	"sync/atomic"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/metrics"
	"vgsales-dash/internal/options"
)

// ErrNoDataset：尚未装载任何数据集
var ErrNoDataset = errors.New("dashboard: no dataset loaded")

// State：一份只读数据集及其推导出的选项
type State struct {
	Snapshot *dataset.Snapshot
	Options  options.Options
}

// Loader：装载完整数据集（CSV 或 PostgreSQL）
type Loader func(ctx context.Context) (*dataset.Snapshot, error)

// 文档注释：数据集热切换
// 背景：管理端重载时整体替换快照，读路径通过 atomic.Value 无锁获取；每次渲染只持有开始时取到的那一份。
// 约束：存入的永远是 *State；替换后旧快照由仍在使用它的渲染自然释放。
type holder struct{ v atomic.Value }

func (h *holder) load() *State {
	x := h.v.Load()
	if x == nil {
		return nil
	}
	return x.(*State)
}

func (h *holder) store(snap *dataset.Snapshot) *State {
	st := &State{Snapshot: snap, Options: options.Derive(snap.Records)}
	h.v.Store(st)
	metrics.DatasetRecords.Set(float64(len(snap.Records)))
	return st
}
