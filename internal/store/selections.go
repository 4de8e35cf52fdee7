package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// SelectionsKey：选择热度哈希表（field 为 Selection.Key()，value 为次数）
const SelectionsKey = "vgdash:selections"

// Selections：Redis 选择热度计数；客户端为 nil 时为空操作
type Selections struct {
	rc *redis.Client
}

func NewSelections(rc *redis.Client) *Selections { return &Selections{rc: rc} }

// SelectionCount：一个筛选组合及其次数
type SelectionCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// IncrSelection：记录一次筛选事件
func (s *Selections) IncrSelection(ctx context.Context, key string) error {
	if s == nil || s.rc == nil {
		return nil
	}
	if err := s.rc.HIncrBy(ctx, SelectionsKey, key, 1).Err(); err != nil {
		return fmt.Errorf("store: incr selection: %w", err)
	}
	return nil
}

// TopSelections：次数最多的 n 个组合（次数降序，同次数按键升序）
func (s *Selections) TopSelections(ctx context.Context, n int) ([]SelectionCount, error) {
	if s == nil || s.rc == nil {
		return nil, nil
	}
	m, err := s.rc.HGetAll(ctx, SelectionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("store: read selections: %w", err)
	}
	return rankCounts(m, n), nil
}

func rankCounts(m map[string]string, n int) []SelectionCount {
	out := make([]SelectionCount, 0, len(m))
	for k, v := range m {
		c, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, SelectionCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
