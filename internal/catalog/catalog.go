// 包 catalog：静态只读配置表（平台白名单与展示名、区域选项、地图宏观区域坐标）
// 背景：原先散落在各视图中的常量集中到内嵌 YAML，进程启动时解析一次；对外只暴露拷贝，避免被调用方修改
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var raw []byte

// Platform：白名单平台编码与展示名
type Platform struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Region：区域单选项（销售字段键 + 展示文本）
type Region struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// MacroRegion：地图气泡区域，坐标为经纬度
type MacroRegion struct {
	Name string  `yaml:"name"`
	Key  string  `yaml:"key"`
	Lon  float64 `yaml:"lon"`
	Lat  float64 `yaml:"lat"`
}

type document struct {
	Platforms    []Platform    `yaml:"platforms"`
	Regions      []Region      `yaml:"regions"`
	MacroRegions []MacroRegion `yaml:"macro_regions"`
}

var (
	doc         document
	platformIdx map[string]string
)

func init() {
	d, err := parse(raw)
	if err != nil {
		panic(err)
	}
	doc = d
	platformIdx = make(map[string]string, len(d.Platforms))
	for _, p := range d.Platforms {
		platformIdx[p.Code] = p.Name
	}
}

// parse：解析并校验目录文档
// 约束：区域至少一项（第一项为默认区域）；宏观区域键必须是已声明的区域键
func parse(b []byte) (document, error) {
	var d document
	if err := yaml.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(d.Regions) == 0 {
		return d, fmt.Errorf("catalog: no regions declared")
	}
	keys := make(map[string]bool, len(d.Regions))
	for _, r := range d.Regions {
		keys[r.Key] = true
	}
	for _, m := range d.MacroRegions {
		if !keys[m.Key] {
			return d, fmt.Errorf("catalog: macro region %q uses unknown key %q", m.Name, m.Key)
		}
	}
	seen := make(map[string]bool, len(d.Platforms))
	for _, p := range d.Platforms {
		if seen[p.Code] {
			return d, fmt.Errorf("catalog: duplicate platform %q", p.Code)
		}
		seen[p.Code] = true
	}
	return d, nil
}

// Platforms：白名单平台（声明顺序）
func Platforms() []Platform { return append([]Platform(nil), doc.Platforms...) }

// PlatformName：查询白名单平台展示名；不在白名单返回 false
func PlatformName(code string) (string, bool) {
	n, ok := platformIdx[code]
	return n, ok
}

// Regions：区域单选项（固定顺序，首项为默认）
func Regions() []Region { return append([]Region(nil), doc.Regions...) }

// DefaultRegion：默认区域键
func DefaultRegion() string { return doc.Regions[0].Key }

// MacroRegions：地图宏观区域
func MacroRegions() []MacroRegion { return append([]MacroRegion(nil), doc.MacroRegions...) }
