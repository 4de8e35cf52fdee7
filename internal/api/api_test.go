package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	geojson "github.com/paulmach/go.geojson"

	"vgsales-dash/internal/dashboard"
	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/metrics"
	"vgsales-dash/internal/middleware"
)

type fakeGeo struct {
	calls atomic.Int32
	err   error
}

func (f *fakeGeo) Name() string { return "fake" }

func (f *fakeGeo) Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	fc := geojson.NewFeatureCollection()
	fc.AddFeature(geojson.NewFeature(geojson.NewPolygonGeometry([][][]float64{{{0, 0}, {10, 0}, {10, 10}, {0, 0}}})))
	return fc, nil
}

var (
	recA = dataset.Record{Name: "A", Platform: "PS2", Genre: "Action", Year: 2005, NASales: 1.0, EUSales: 0.5, GlobalSales: 1.5}
	recB = dataset.Record{Name: "B", Platform: "Wii", Genre: "Sports", Year: 2006, NASales: 1.2, JPSales: 0.8, GlobalSales: 2.0}
)

func snapshot(recs ...dataset.Record) *dataset.Snapshot {
	return &dataset.Snapshot{Records: recs, Source: "test", LoadedAt: time.Now()}
}

func newTestRouter(t *testing.T, src *fakeGeo, mut func(*Deps)) (http.Handler, *dashboard.Service) {
	t.Helper()
	loader := func(ctx context.Context) (*dataset.Snapshot, error) { return snapshot(recA), nil }
	svc := dashboard.New(dashboard.DefaultConfig(), src, loader)
	svc.Swap(snapshot(recA, recB))
	d := Deps{Service: svc, AdminToken: "secret"}
	if mut != nil {
		mut(&d)
	}
	return BuildRoutes(d), svc
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{}, nil)
	if rec := get(h, "/healthz"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"records":2`) {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}
	empty := BuildRoutes(Deps{Service: dashboard.New(dashboard.DefaultConfig(), &fakeGeo{}, nil)})
	if rec := get(empty, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz before load: %d", rec.Code)
	}
	if rec := get(empty, "/api/dashboard"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("dashboard before load: %d", rec.Code)
	}
}

func TestOptionsRoute(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{}, nil)
	rec := get(h, "/api/options")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Platforms []struct{ Value, Label string } `json:"platforms"`
		Genres    []struct{ Value, Label string } `json:"genres"`
		Regions   []struct{ Value, Label string } `json:"regions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Platforms) != 3 || body.Platforms[0].Value != "All" || body.Platforms[1].Label != "PlayStation 2" {
		t.Fatalf("platforms: %+v", body.Platforms)
	}
	if len(body.Genres) != 3 || len(body.Regions) != 5 {
		t.Fatalf("genres/regions: %+v %+v", body.Genres, body.Regions)
	}
}

type dashboardBody struct {
	Matched int    `json:"matched"`
	BarSVG  string `json:"bar_svg"`
	LineSVG string `json:"line_svg"`
	Top     []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"top"`
	Map *struct {
		SVG    string `json:"bubble_svg"`
		Legend []struct {
			Region string `json:"region"`
			Text   string `json:"text"`
		} `json:"legend"`
	} `json:"map"`
	MapError string `json:"map_error"`
}

func TestDashboardRoute(t *testing.T) {
	src := &fakeGeo{}
	h, _ := newTestRouter(t, src, nil)
	rec := get(h, "/api/dashboard?platform=PS2&region=NA_Sales")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body dashboardBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Matched != 1 || len(body.Top) != 1 || body.Top[0].Name != "A" || body.Top[0].Value != 1.0 {
		t.Fatalf("unexpected charts: %+v", body)
	}
	if !strings.Contains(body.BarSVG, "<svg") {
		t.Fatalf("bar svg missing")
	}
	if body.Map == nil || len(body.Map.Legend) != 2 || body.Map.Legend[0].Region != "North America" || body.Map.Legend[0].Text != "1.0M" {
		t.Fatalf("unexpected map: %+v", body.Map)
	}
	if src.calls.Load() != 1 {
		t.Fatalf("geometry fetched %d times", src.calls.Load())
	}
}

func TestDashboardRejectsUnknownOption(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{}, nil)
	for _, q := range []string{"platform=PCFX", "genre=Racing", "region=Mars_Sales"} {
		if rec := get(h, "/api/dashboard?"+q); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", q, rec.Code)
		}
	}
}

func TestDashboardGeometryFailureOmitsMap(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{err: errors.New("unreachable")}, nil)
	rec := get(h, "/api/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body dashboardBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Map != nil || !strings.Contains(body.MapError, "unreachable") {
		t.Fatalf("map must be omitted: %+v", body)
	}
	if body.Matched != 2 || !strings.Contains(body.LineSVG, "<svg") {
		t.Fatalf("charts must still render: %+v", body)
	}
}

func TestChartRoute(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{}, nil)
	for _, view := range []string{"bar", "line", "bubble"} {
		rec := get(h, "/api/charts/"+view+".svg?genre=Sports")
		if rec.Code != http.StatusOK || rec.Header().Get("content-type") != "image/svg+xml" {
			t.Fatalf("%s: %d %s", view, rec.Code, rec.Header().Get("content-type"))
		}
		if !strings.Contains(rec.Body.String(), "</svg>") {
			t.Fatalf("%s: body is not svg", view)
		}
	}
	if rec := get(h, "/api/charts/pie.svg"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown view: %d", rec.Code)
	}
	failing, _ := newTestRouter(t, &fakeGeo{err: errors.New("down")}, nil)
	if rec := get(failing, "/api/charts/bubble.svg"); rec.Code != http.StatusBadGateway {
		t.Fatalf("bubble without geometry: %d", rec.Code)
	}
}

func TestStatsWithoutBackends(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{}, nil)
	rec := get(h, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["total"].(float64) != 0 || len(body["top_selections"].([]any)) != 0 {
		t.Fatalf("unexpected stats: %v", body)
	}
	for _, k := range []string{"today", "visitors", "today_visitors"} {
		if v, ok := body[k].(float64); !ok || v != 0 {
			t.Fatalf("stats must report %s: %v", k, body)
		}
	}
}

func TestReload(t *testing.T) {
	h, svc := newTestRouter(t, &fakeGeo{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("reload without token: %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/admin/reload", nil)
	req.Header.Set("x-admin-token", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"records":1`) {
		t.Fatalf("reload: %d %s", rec.Code, rec.Body.String())
	}
	if n := len(svc.State().Snapshot.Records); n != 1 {
		t.Fatalf("dataset not swapped: %d", n)
	}
	if rec := get(h, "/api/dashboard?platform=Wii"); rec.Code != http.StatusBadRequest {
		t.Fatalf("options must follow the reloaded dataset: %d", rec.Code)
	}
}

func TestPage(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{}, nil)
	rec := get(h, "/?genre=Action")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`name="platform" value="All" checked`,
		`name="genre" value="Action" checked`,
		`name="region" value="Global_Sales" checked`,
		`value="Wii"`,
		"<svg",
		"North America: 1.0M",
		"1 games",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if strings.Contains(body, `id="map-error">`) {
		t.Fatalf("map error must stay hidden when geometry loads")
	}
}

func TestMetricsAndRateLimit(t *testing.T) {
	allow := middleware.NewAllowlist(slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"192.0.2.0/24"}, "")
	h, _ := newTestRouter(t, &fakeGeo{}, func(d *Deps) {
		d.Metrics = allow.Wrap(metrics.Handler())
		d.Limit = middleware.RateLimit(true, 1)
	})
	rec := get(h, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "vgdash_") {
		t.Fatalf("metrics: %d", rec.Code)
	}
	limited := 0
	for i := 0; i < 5; i++ {
		if get(h, "/api/options").Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited < 3 {
		t.Fatalf("expected requests over the limit to be rejected, got %d", limited)
	}
	if rec := get(h, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz must bypass the limiter: %d", rec.Code)
	}
}

func readFrame(t *testing.T, c *websocket.Conn) Frame {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f Frame
	if err := c.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestEventChannel(t *testing.T) {
	src := &fakeGeo{}
	h, _ := newTestRouter(t, src, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	hello := readFrame(t, c)
	if hello.Type != FrameHello || hello.Session == "" || hello.Options == nil || len(hello.Options.Platforms) != 3 {
		t.Fatalf("hello: %+v", hello)
	}
	// 连接建立后服务端不主动渲染
	_ = c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := c.ReadMessage(); err == nil {
		t.Fatalf("no frame expected before the first select event")
	}
	if src.calls.Load() != 0 {
		t.Fatalf("geometry fetched before any event: %d", src.calls.Load())
	}
	c.Close()

	c, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	readFrame(t, c)
	if err := c.WriteJSON(clientMessage{Type: "select"}); err != nil {
		t.Fatal(err)
	}
	first := readFrame(t, c)
	if first.Type != FrameCharts || first.Seq != 1 || first.Charts.Matched != 2 {
		t.Fatalf("initial charts: %+v", first)
	}
	if d := first.Diff["bar"]; !slices.Contains(d.Added, "bar/A") || !slices.Contains(d.Added, "bar/B") {
		t.Fatalf("initial bar diff: %+v", d)
	}
	m := readFrame(t, c)
	if m.Type != FrameMap || m.Seq != 1 || m.Map == nil || m.Map.Legend[0].Region != "North America" {
		t.Fatalf("initial map: %+v", m)
	}

	if err := c.WriteJSON(clientMessage{Type: "select", Platform: "PS2"}); err != nil {
		t.Fatal(err)
	}
	next := readFrame(t, c)
	if next.Type != FrameCharts || next.Seq != 2 || next.Charts.Matched != 1 || next.Charts.Selection.Platform != "PS2" {
		t.Fatalf("second charts: %+v", next)
	}
	bar := next.Diff["bar"]
	if !slices.Contains(bar.Removed, "bar/B") || !slices.Contains(bar.Updated, "bar/A") {
		t.Fatalf("second bar diff: %+v", bar)
	}
	m2 := readFrame(t, c)
	if m2.Type != FrameMap || m2.Seq != 2 || m2.Map.Selection.Platform != "PS2" {
		t.Fatalf("second map: %+v", m2)
	}
	if !slices.Contains(m2.Diff["bubble"].Removed, "bubble/Japan") {
		t.Fatalf("bubble diff: %+v", m2.Diff["bubble"])
	}

	if err := c.WriteJSON(clientMessage{Type: "select", Genre: "Racing"}); err != nil {
		t.Fatal(err)
	}
	bad := readFrame(t, c)
	if bad.Type != FrameError || bad.Seq != 3 || !strings.Contains(bad.Error, "genre") {
		t.Fatalf("unknown option frame: %+v", bad)
	}
	if src.calls.Load() != 2 {
		t.Fatalf("geometry must be fetched once per rendered event, got %d", src.calls.Load())
	}
}

func TestEventChannelMapError(t *testing.T) {
	h, _ := newTestRouter(t, &fakeGeo{err: errors.New("offline")}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	readFrame(t, c)
	if err := c.WriteJSON(clientMessage{Type: "select"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, c); f.Type != FrameCharts {
		t.Fatalf("charts must arrive before the map outcome: %+v", f)
	}
	f := readFrame(t, c)
	if f.Type != FrameMapError || f.Seq != 1 || !strings.Contains(f.Error, "offline") {
		t.Fatalf("map error frame: %+v", f)
	}
}
