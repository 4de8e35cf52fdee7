package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

const (
	visitorBloomBits = 1 << 20
	visitorBloomHash = 4
	visitorBloomTTL  = 48 * time.Hour
	visitorBloomRoot = "vgdash:visitors:"
)

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数。
// 背景：FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：判断访客当天是否首次出现
// 背景：统计表里的访客数只在首次出现时递增；按天分桶的位图在 Redis 中共享，多实例部署下结果一致。
// 返回：true 表示首次出现（已写入位图）；客户端为 nil 时恒为 false，访客数不再累计。
// 约束：布隆过滤器有误判，少量新访客会被当成已出现，不会反过来。
func (s *Selections) FirstVisit(ctx context.Context, ip string, now time.Time) (bool, error) {
	if s == nil || s.rc == nil || ip == "" {
		return false, nil
	}
	key := visitorBloomRoot + now.UTC().Format("20060102")
	seen := true
	positions := bloomPositions([]byte(ip), visitorBloomBits, visitorBloomHash)
	for _, p := range positions {
		b, err := s.rc.GetBit(ctx, key, p).Result()
		if err != nil {
			return false, fmt.Errorf("store: visitor bloom: %w", err)
		}
		if b == 0 {
			seen = false
		}
	}
	if seen {
		return false, nil
	}
	for _, p := range positions {
		_, _ = s.rc.SetBit(ctx, key, p, 1).Result()
	}
	_ = s.rc.Expire(ctx, key, visitorBloomTTL).Err()
	return true, nil
}
