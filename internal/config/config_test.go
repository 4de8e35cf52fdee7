package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DATASET_SOURCE", "GEOMETRY_URL", "GEOMETRY_TIMEOUT_MS", "MAP_SCALE", "BAR_WIDTH", "METRICS_ALLOW_CIDRS", "RATE_LIMIT_ENABLED", "PG_ENABLED", "DATASET_RELOAD_INTERVAL"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.Addr != ":8080" || c.DatasetSource != SourceCSV {
		t.Fatalf("defaults: %+v", c)
	}
	if c.GeometryTimeout != 4*time.Second || c.MapScale != 130 {
		t.Fatalf("geometry defaults: %v %v", c.GeometryTimeout, c.MapScale)
	}
	if c.Bar.Width != 800 || c.Bar.Height != 600 || c.Line.Height != 400 || c.Bubble.Height != 500 {
		t.Fatalf("chart sizes: %+v %+v %+v", c.Bar, c.Line, c.Bubble)
	}
	if c.GeometryPath != filepath.Join("data", "countries.json") {
		t.Fatalf("geometry path: %s", c.GeometryPath)
	}
	if len(c.MetricsAllowCIDRs) != 2 || c.RateLimitEnabled {
		t.Fatalf("middleware defaults: %+v", c)
	}
	if c.PostgresEnabled || c.DatasetReload != 0 {
		t.Fatalf("csv source must not open postgres or reload by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DATASET_SOURCE", "Postgres")
	t.Setenv("GEOMETRY_TIMEOUT_MS", "250")
	t.Setenv("MAP_SCALE", "0")
	t.Setenv("BAR_WIDTH", "1024")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_QPS", "-3")
	t.Setenv("METRICS_ALLOW_CIDRS", " 10.0.0.0/8 , ,192.168.0.0/16")
	t.Setenv("DATASET_RELOAD_INTERVAL", "15m")
	c := Load()
	if c.Addr != ":9090" || c.DatasetSource != SourcePostgres || !c.PostgresEnabled {
		t.Fatalf("overrides: %+v", c)
	}
	if c.GeometryTimeout != 250*time.Millisecond || c.MapScale != 0 || c.Bar.Width != 1024 {
		t.Fatalf("numeric overrides: %+v", c)
	}
	if c.DatasetReload != 15*time.Minute {
		t.Fatalf("reload interval: %v", c.DatasetReload)
	}
	if !c.RateLimitEnabled || c.RateLimitQPS != 200 {
		t.Fatalf("invalid qps must fall back: %d", c.RateLimitQPS)
	}
	if len(c.MetricsAllowCIDRs) != 2 || c.MetricsAllowCIDRs[0] != "10.0.0.0/8" {
		t.Fatalf("cidr list: %v", c.MetricsAllowCIDRs)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	if err := os.WriteFile(".env", []byte("VGDASH_TEST_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VGDASH_TEST_KEY", "")
	os.Unsetenv("VGDASH_TEST_KEY")
	LoadDotEnv()
	if got := os.Getenv("VGDASH_TEST_KEY"); got != "from-dotenv" {
		t.Fatalf("dotenv not loaded: %q", got)
	}
}
