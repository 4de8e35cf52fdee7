// 包 options：从完整数据集推导三组单选项（平台 / 类型 / 区域）
// 约束：平台与白名单取交集并按编码升序，映射为展示名；类型去重升序；区域为固定列表；前两组均以合成项 "All" 开头
package options

import (
	"sort"

	"vgsales-dash/internal/catalog"
	"vgsales-dash/internal/dataset"
)

// All：平台 / 类型两组的合成“不过滤”项
const All = "All"

// Axis：单选组
type Axis string

const (
	AxisPlatform Axis = "platform"
	AxisGenre    Axis = "genre"
	AxisRegion   Axis = "region"
)

// Option：单个单选项，Value 为提交值，Label 为展示文本
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options：三组有序选项
type Options struct {
	Platforms []Option `json:"platforms"`
	Genres    []Option `json:"genres"`
	Regions   []Option `json:"regions"`
}

// Derive：推导选项；空数据集只得到 "All" 与固定区域列表
func Derive(records []dataset.Record) Options {
	platforms := map[string]bool{}
	genres := map[string]bool{}
	for _, r := range records {
		if _, ok := catalog.PlatformName(r.Platform); ok {
			platforms[r.Platform] = true
		}
		genres[r.Genre] = true
	}
	out := Options{
		Platforms: []Option{{Value: All, Label: All}},
		Genres:    []Option{{Value: All, Label: All}},
	}
	for _, code := range sortedKeys(platforms) {
		name, _ := catalog.PlatformName(code)
		out.Platforms = append(out.Platforms, Option{Value: code, Label: name})
	}
	for _, g := range sortedKeys(genres) {
		out.Genres = append(out.Genres, Option{Value: g, Label: g})
	}
	for _, r := range catalog.Regions() {
		out.Regions = append(out.Regions, Option{Value: r.Key, Label: r.Label})
	}
	return out
}

// Has：判断某组是否包含该取值
func (o Options) Has(axis Axis, value string) bool {
	for _, opt := range o.group(axis) {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Label：取值对应的展示文本，找不到时原样返回
func (o Options) Label(axis Axis, value string) string {
	for _, opt := range o.group(axis) {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func (o Options) group(axis Axis) []Option {
	switch axis {
	case AxisPlatform:
		return o.Platforms
	case AxisGenre:
		return o.Genres
	case AxisRegion:
		return o.Regions
	}
	return nil
}

// 字节序升序，与浏览器端默认排序一致
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
