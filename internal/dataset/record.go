// 包 dataset：销量记录模型与装载（CSV 文件 / PostgreSQL 由 store 提供）
// 背景：记录在装载时一次性完成类型化与清洗，此后只读；视图只通过区域键读取销量字段
package dataset

import (
	"errors"
	"time"
)

// RegionKey：销量字段键，同时作为区域单选项的取值
type RegionKey string

const (
	GlobalSales RegionKey = "Global_Sales"
	NASales     RegionKey = "NA_Sales"
	EUSales     RegionKey = "EU_Sales"
	JPSales     RegionKey = "JP_Sales"
	OtherSales  RegionKey = "Other_Sales"
)

// ErrUnknownRegion：区域键不在固定集合内
var ErrUnknownRegion = errors.New("dataset: unknown region key")

// ParseRegionKey：校验并转换区域键
func ParseRegionKey(s string) (RegionKey, error) {
	switch k := RegionKey(s); k {
	case GlobalSales, NASales, EUSales, JPSales, OtherSales:
		return k, nil
	}
	return "", ErrUnknownRegion
}

// Record：一条游戏销量记录
// 约束：销量字段恒为非负实数（缺失/无法解析记为 0）；Year 无效的行在装载阶段已被剔除
type Record struct {
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	Genre       string  `json:"genre"`
	Year        int     `json:"year"`
	NASales     float64 `json:"na_sales"`
	EUSales     float64 `json:"eu_sales"`
	JPSales     float64 `json:"jp_sales"`
	OtherSales  float64 `json:"other_sales"`
	GlobalSales float64 `json:"global_sales"`
}

// Sales：按区域键读取销量；未知键返回 0
func (r Record) Sales(k RegionKey) float64 {
	switch k {
	case GlobalSales:
		return r.GlobalSales
	case NASales:
		return r.NASales
	case EUSales:
		return r.EUSales
	case JPSales:
		return r.JPSales
	case OtherSales:
		return r.OtherSales
	}
	return 0
}

// Snapshot：一次装载的完整数据集，只读共享
type Snapshot struct {
	Records  []Record
	Source   string
	LoadedAt time.Time
	Stats    LoadStats
}
