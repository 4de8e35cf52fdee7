// 包 geo：世界边界几何的获取、解码与投影，以及访客 IP 到宏观区域的映射
// 背景：地图视图每次重绘都重新获取几何（数据静态，重复读取可接受）；获取失败直接返回错误，由调用方决定本轮不绘制地图
package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// Source：世界边界几何来源
type Source interface {
	Fetch(ctx context.Context) (*geojson.FeatureCollection, error)
	Name() string
}

// FileSource：本地文件（GeoJSON 或 TopoJSON），每次调用重新读取
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("geo: read %s: %w", s.Path, err)
	}
	return Decode(b)
}

// 文档注释：远端几何文件
// 背景：静态资源可能放在 CDN；单次 GET，超时即失败，不重试。
// 约束：仅接受 200；响应体上限 64MB。
type HTTPSource struct {
	url    string
	client *http.Client
}

const maxGeometryBytes = 64 << 20

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Name() string { return "http:" + s.url }

func (s *HTTPSource) Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: fetch %s: status %d", s.url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxGeometryBytes))
	if err != nil {
		return nil, fmt.Errorf("geo: read body: %w", err)
	}
	return Decode(b)
}

// NewSource：URL 非空时优先远端，否则读本地文件
func NewSource(path, url string, timeout time.Duration) Source {
	if url != "" {
		return NewHTTPSource(url, timeout)
	}
	return FileSource{Path: path}
}
