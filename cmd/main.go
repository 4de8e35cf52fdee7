// 程序入口：仅负责读取配置、初始化依赖并启动服务；路由注册在 internal/api
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vgsales-dash/internal/api"
	"vgsales-dash/internal/config"
	"vgsales-dash/internal/dashboard"
	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/geo"
	"vgsales-dash/internal/logger"
	"vgsales-dash/internal/metrics"
	"vgsales-dash/internal/middleware"
	"vgsales-dash/internal/migrate"
	"vgsales-dash/internal/store"
	"vgsales-dash/internal/utils"
)

func main() {
	config.LoadDotEnv()
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	l.Debug("config_loaded", "addr", cfg.Addr, "dataset_source", cfg.DatasetSource, "geometry_path", cfg.GeometryPath, "geometry_url", cfg.GeometryURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.PostgresEnabled {
		var err error
		db, err = utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
	} else {
		l.Info("db_disabled")
	}
	st := store.AttachDB(db)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	loc, err := geo.OpenLocator(cfg.GeoIPPath)
	if err != nil {
		l.Error("geoip_open_error", "err", err)
	}
	defer loc.Close()

	var loader dashboard.Loader
	switch cfg.DatasetSource {
	case config.SourcePostgres:
		loader = st.LoadSnapshot
	default:
		path := cfg.DataCSV
		loader = func(context.Context) (*dataset.Snapshot, error) { return dataset.LoadCSVFile(path) }
	}
	src := geo.NewSource(cfg.GeometryPath, cfg.GeometryURL, cfg.GeometryTimeout)
	l.Info("geometry_source", "source", src.Name())

	svc := dashboard.New(dashboard.Config{
		Bar:      cfg.Bar,
		Line:     cfg.Line,
		Bubble:   cfg.Bubble,
		MapScale: cfg.MapScale,
	}, src, loader)
	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	_, err = svc.Reload(loadCtx)
	cancel()
	if err != nil {
		l.Error("dataset_load_error", "source", cfg.DatasetSource, "err", err)
		os.Exit(1)
	}
	svc.StartAutoReload(ctx, cfg.DatasetReload)

	allow := middleware.NewAllowlist(l, cfg.MetricsAllowCIDRs, os.Getenv("METRICS_REAL_IP_HEADER"))
	routes := api.BuildRoutes(api.Deps{
		Service:    svc,
		Store:      st,
		Counters:   store.NewSelections(rc),
		Locator:    loc,
		AdminToken: cfg.AdminToken,
		Metrics:    allow.Wrap(metrics.Handler()),
		Limit:      middleware.RateLimit(cfg.RateLimitEnabled, cfg.RateLimitQPS),
	})
	s := &http.Server{Addr: cfg.Addr, Handler: logger.AccessMiddleware(l)(routes), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutCtx)
	}()

	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "vgsales-dash.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go redirectToHTTPS(cfg.Addr)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// redirectToHTTPS：可选的 HTTP 到 HTTPS 跳转（不改变 HTTPS 端口）
func redirectToHTTPS(addr string) {
	l := logger.L()
	redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
	if redirAddr == "" {
		redirAddr = ":80"
	}
	httpsPort := strings.TrimPrefix(addr, ":")
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
		if httpsPort != "" {
			host = host + ":" + httpsPort
		}
		target := "https://" + host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
	_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(mux))
}
