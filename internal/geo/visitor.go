package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// 文档注释：访客所在宏观区域
// 背景：页面在图例里标出访客所在区域（North America / Europe / Japan / Other），数据来自本地 GeoLite2 Country 库。
// 约束：未配置库路径时 Locator 为 nil，所有查询返回未知；查询失败不影响渲染。
type Locator struct {
	db *geoip2.Reader
}

// OpenLocator：path 为空返回 (nil, nil)
func OpenLocator(path string) (*Locator, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geo: open geoip db: %w", err)
	}
	return &Locator{db: db}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// MacroRegion：访客 IP 所属宏观区域名；未知返回 false
func (l *Locator) MacroRegion(ip net.IP) (string, bool) {
	if l == nil || l.db == nil || ip == nil {
		return "", false
	}
	rec, err := l.db.Country(ip)
	if err != nil || rec == nil {
		return "", false
	}
	name := MacroRegionFor(rec.Country.IsoCode, rec.Continent.Code)
	return name, name != ""
}

// MacroRegionFor：国家/大洲代码到宏观区域名
func MacroRegionFor(countryISO, continent string) string {
	switch countryISO {
	case "":
		return ""
	case "US", "CA", "MX":
		return "North America"
	case "JP":
		return "Japan"
	}
	if continent == "EU" {
		return "Europe"
	}
	return "Other"
}
