// 包 store: PostgreSQL 数据访问层（销量数据集、渲染统计）与 Redis 选择热度计数
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/logger"
)

// Store: 数据库访问入口；db 为 nil 时统计类方法为空操作
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) enabled() bool { return s != nil && s.db != nil }

var salesColumns = []string{"name", "platform", "genre", "year", "na_sales", "eu_sales", "jp_sales", "other_sales", "global_sales"}

// LoadSnapshot: 读取 _vg_sales 全表为只读快照（按导入顺序）
// 约束：入库前已完成清洗，这里不再做年份与数值校验
func (s *Store) LoadSnapshot(ctx context.Context) (*dataset.Snapshot, error) {
	if !s.enabled() {
		return nil, fmt.Errorf("store: no database")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, platform, genre, year, na_sales, eu_sales, jp_sales, other_sales, global_sales
        FROM _vg_sales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query sales: %w", err)
	}
	defer rows.Close()
	var recs []dataset.Record
	for rows.Next() {
		var r dataset.Record
		if err := rows.Scan(&r.Name, &r.Platform, &r.Genre, &r.Year, &r.NASales, &r.EUSales, &r.JPSales, &r.OtherSales, &r.GlobalSales); err != nil {
			return nil, fmt.Errorf("store: scan sales: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate sales: %w", err)
	}
	logger.L().Debug("db_sales_loaded", "records", len(recs))
	return &dataset.Snapshot{
		Records:  recs,
		Source:   "postgres:_vg_sales",
		LoadedAt: time.Now(),
		Stats:    dataset.LoadStats{Rows: len(recs), Kept: len(recs)},
	}, nil
}

// 文档注释：整表替换数据集
// 背景：导入工具一次性重建 _vg_sales；在单个事务内清空并用 COPY 批量写入，失败整体回滚，服务端读到的永远是完整数据集。
func (s *Store) ReplaceSales(ctx context.Context, recs []dataset.Record) (int, error) {
	if !s.enabled() {
		return 0, fmt.Errorf("store: no database")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `TRUNCATE _vg_sales RESTART IDENTITY`); err != nil {
		return 0, fmt.Errorf("store: truncate: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("_vg_sales", salesColumns...))
	if err != nil {
		return 0, fmt.Errorf("store: prepare copy: %w", err)
	}
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.Name, r.Platform, r.Genre, r.Year, r.NASales, r.EUSales, r.JPSales, r.OtherSales, r.GlobalSales); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("store: copy row %q: %w", r.Name, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("store: flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("store: close copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return len(recs), nil
}

// IncrStats: 一次完整渲染后递增总计与当日计数；首次访问的访客额外计入访客数
func (s *Store) IncrStats(ctx context.Context, newVisitor bool) error {
	if !s.enabled() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE _dash_stats_total SET total_renders=total_renders+1 WHERE id=1"); err != nil {
		return fmt.Errorf("store: incr total: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO _dash_stats_daily(day, renders) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET renders=_dash_stats_daily.renders+1"); err != nil {
		return fmt.Errorf("store: incr daily: %w", err)
	}
	if newVisitor {
		_, _ = s.db.ExecContext(ctx, "UPDATE _dash_stats_total SET total_visitors=total_visitors+1 WHERE id=1")
		_, _ = s.db.ExecContext(ctx, "INSERT INTO _dash_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_dash_stats_daily.visitors+1")
	}
	logger.L().Debug("stats_incr", "new_visitor", newVisitor)
	return nil
}

// Totals: 累计与当日的渲染次数、独立访客数
type Totals struct {
	Total         int64 `json:"total"`
	Today         int64 `json:"today"`
	Visitors      int64 `json:"visitors"`
	TodayVisitors int64 `json:"today_visitors"`
}

// GetTotals: 读取统计；未配置数据库时返回零值
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	if !s.enabled() {
		return &t, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT total_renders, total_visitors FROM _dash_stats_total WHERE id=1").Scan(&t.Total, &t.Visitors); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("store: read total: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT renders, visitors FROM _dash_stats_daily WHERE day=current_date").Scan(&t.Today, &t.TodayVisitors); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("store: read today: %w", err)
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today, "visitors", t.Visitors)
	return &t, nil
}
