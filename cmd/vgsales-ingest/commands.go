package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vgsales-dash/internal/dataset"
	"vgsales-dash/internal/logger"
	"vgsales-dash/internal/migrate"
	"vgsales-dash/internal/store"
	"vgsales-dash/internal/utils"
)

var (
	csvPath    string
	timeoutSec int
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:          "vgsales-ingest",
	Short:        "Create the dashboard schema and load the sales dataset into PostgreSQL",
	SilenceUsage: true,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create tables and indexes (idempotent)",
	RunE:  runSchema,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Replace _vg_sales with the cleaned rows of a CSV file",
	Long: `Parses the CSV with the same rules the server uses (rows with a missing or
non-integer Year are dropped, malformed sales figures become 0) and replaces the
whole _vg_sales table in a single transaction.`,
	RunE: runLoad,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", 300, "Overall timeout in seconds")
	loadCmd.Flags().StringVar(&csvPath, "csv", "data/video-games-sales.csv", "Path to the sales CSV")
	loadCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report without writing")
	rootCmd.AddCommand(schemaCmd, loadCmd)
}

func withDB(cmd *cobra.Command, fn func(ctx context.Context, db *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return fn(ctx, db)
}

func runSchema(cmd *cobra.Command, args []string) error {
	return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			return err
		}
		logger.L().Info("schema_ok")
		return nil
	})
}

func runLoad(cmd *cobra.Command, args []string) error {
	snap, err := dataset.LoadCSVFile(csvPath)
	if err != nil {
		return err
	}
	st := snap.Stats
	fmt.Fprintf(cmd.OutOrStdout(), "rows=%d kept=%d invalid_year=%d malformed=%d\n", st.Rows, st.Kept, st.InvalidYear, st.Malformed)
	if dryRun {
		return nil
	}
	return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			return err
		}
		start := time.Now()
		n, err := store.AttachDB(db).ReplaceSales(ctx, snap.Records)
		if err != nil {
			return err
		}
		logger.L().Info("ingest_ok", "records", n, "source", snap.Source, "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
}
