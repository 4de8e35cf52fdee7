package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"vgsales-dash/internal/logger"
)

// Statements：建表语句，按顺序执行
// 约束：全部使用 IF NOT EXISTS / ON CONFLICT，可重复执行
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS _vg_sales (
        id SERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        platform TEXT NOT NULL,
        genre TEXT NOT NULL,
        year INT NOT NULL,
        na_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
        eu_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
        jp_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
        other_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
        global_sales DOUBLE PRECISION NOT NULL DEFAULT 0
    )`,
	`CREATE INDEX IF NOT EXISTS idx_vg_sales_platform_genre ON _vg_sales(platform, genre)`,
	`CREATE TABLE IF NOT EXISTS _dash_stats_total (
        id INT PRIMARY KEY,
        total_renders BIGINT NOT NULL DEFAULT 0,
        total_visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS _dash_stats_daily (
        day DATE PRIMARY KEY,
        renders BIGINT NOT NULL DEFAULT 0,
        visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`INSERT INTO _dash_stats_total(id, total_renders, total_visitors)
     VALUES(1, 0, 0)
     ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema：首次运行自动创建数据集表与统计表
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range Statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
