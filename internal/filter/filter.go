// 包 filter：筛选条件与过滤引擎
// 背景：筛选条件是不可变值，每次输入事件从 UI 状态重建并按参数传入过滤与各视图，不存在全局选择状态
package filter

import (
	"errors"
	"fmt"
	"net/url"

	"vgsales-dash/internal/catalog"
	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/options"
)

// ErrUnknownOption：提交的取值不在对应单选组内
var ErrUnknownOption = errors.New("filter: unknown option")

// Selection：每组恰好一个取值
type Selection struct {
	Platform string            `json:"platform"`
	Genre    string            `json:"genre"`
	Region   dataset.RegionKey `json:"region"`
}

// Default：platform=All, genre=All, region=Global_Sales
func Default() Selection {
	return Selection{Platform: options.All, Genre: options.All, Region: dataset.RegionKey(catalog.DefaultRegion())}
}

// Key：稳定字符串键，用于计数与日志
func (s Selection) Key() string {
	return s.Platform + "|" + s.Genre + "|" + string(s.Region)
}

// Parse：从查询参数重建筛选条件
// 约束：缺省的组取默认值；取值必须存在于当前选项集，否则返回 ErrUnknownOption
func Parse(q url.Values, opts options.Options) (Selection, error) {
	sel := Default()
	if v := q.Get(string(options.AxisPlatform)); v != "" {
		sel.Platform = v
	}
	if v := q.Get(string(options.AxisGenre)); v != "" {
		sel.Genre = v
	}
	if v := q.Get(string(options.AxisRegion)); v != "" {
		sel.Region = dataset.RegionKey(v)
	}
	return sel, Validate(sel, opts)
}

// Validate：校验三组取值
func Validate(sel Selection, opts options.Options) error {
	if !opts.Has(options.AxisPlatform, sel.Platform) {
		return fmt.Errorf("%w: platform=%q", ErrUnknownOption, sel.Platform)
	}
	if !opts.Has(options.AxisGenre, sel.Genre) {
		return fmt.Errorf("%w: genre=%q", ErrUnknownOption, sel.Genre)
	}
	if _, err := dataset.ParseRegionKey(string(sel.Region)); err != nil || !opts.Has(options.AxisRegion, string(sel.Region)) {
		return fmt.Errorf("%w: region=%q", ErrUnknownOption, sel.Region)
	}
	return nil
}

// Apply：按平台、类型相等过滤，保持原始顺序
// 约束：区域不参与过滤，只决定下游视图读取哪个销量字段；两组均为 All 时原样返回
func Apply(records []dataset.Record, sel Selection) []dataset.Record {
	byPlatform := sel.Platform != options.All
	byGenre := sel.Genre != options.All
	if !byPlatform && !byGenre {
		return records
	}
	out := make([]dataset.Record, 0, len(records)/4)
	for _, r := range records {
		if byPlatform && r.Platform != sel.Platform {
			continue
		}
		if byGenre && r.Genre != sel.Genre {
			continue
		}
		out = append(out, r)
	}
	return out
}
