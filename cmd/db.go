package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/exaring/otelpgx"
	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const dbDriver = "pgx"

// initDB opens the traced pgx pool shared by sqlx and gorm.
func initDB(ctx context.Context, cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database source: %w", err)
	}
	connConfig.Tracer = otelpgx.NewTracer()

	sqlDB := stdlib.OpenDB(*connConfig)
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqlx.NewDb(sqlDB, dbDriver), nil
}

// initGorm wraps an open connection pool for the gorm repositories.
func initGorm(db *sql.DB, lg *slog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if lg.Enabled(context.Background(), slog.LevelDebug) {
		level = gormlogger.Info
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
