package dashboard

import (
	"context"
	"time"
)

// 文档注释：后台定期重新装载数据集
// 背景：数据集由导入工具在库中整表替换，服务进程按固定间隔拉取新版本，不需要人工调用管理接口。
// 约束：interval <= 0 时不启动；失败只记录日志，继续使用上一版数据集并按原节奏调度；ctx 取消后退出。
func (s *Service) StartAutoReload(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.loader == nil {
		return
	}
	next := time.Now().Add(interval)
	go func() {
		t := time.NewTimer(time.Until(next))
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			s.log.Debug("dataset_reload_start", "scheduled", next)
			if _, err := s.Reload(ctx); err != nil {
				s.log.Error("dataset_reload_error", "err", err)
			}
			next = next.Add(interval)
			t.Reset(time.Until(next))
		}
	}()
}
