package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	// Fail fast with a clear error when the server is unreachable.
	var conn net.Conn
	var err error

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(pool)}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Close() {
	if db.bunDB != nil {
		db.bunDB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// InitializeSchema creates all application tables and indexes if missing.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []any{
		(*models.Country)(nil),
		(*models.Region)(nil),
		(*models.Municipality)(nil),
		(*models.Flag)(nil),
		(*models.User)(nil),
		(*models.Auction)(nil),
		(*models.Bid)(nil),
		(*models.FlagOwnership)(nil),
		(*models.FlagInterest)(nil),
	}

	for _, model := range tables {
		if _, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
		unique  bool
	}{
		{(*models.Flag)(nil), "idx_flags_municipality_variant", []string{"municipality_id", "variant"}, true},
		{(*models.Auction)(nil), "idx_auctions_flag_id", []string{"flag_id"}, false},
		{(*models.Auction)(nil), "idx_auctions_status", []string{"status"}, false},
		{(*models.Bid)(nil), "idx_bids_auction_id", []string{"auction_id"}, false},
		{(*models.Bid)(nil), "idx_bids_bidder_id", []string{"bidder_id"}, false},
		{(*models.FlagInterest)(nil), "idx_flag_interests_user_flag", []string{"user_id", "flag_id"}, true},
	}

	for _, idx := range indexes {
		q := db.bunDB.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// ResetAppTables truncates all application tables in dependency order. Used
// by the administrative reset; cascades so no dependent rows survive.
func (db *DB) ResetAppTables(ctx context.Context) error {
	if db.bunDB == nil {
		return fmt.Errorf("bun DB not initialized")
	}

	// Dependents first, then the geo hierarchy.
	candidates := []string{
		"flag_interests",
		"flag_ownerships",
		"bids",
		"auctions",
		"users",
		"flags",
		"municipalities",
		"regions",
		"countries",
	}

	rows, err := db.pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			present[name] = true
		}
	}

	var toTruncate []string
	for _, t := range candidates {
		if present[t] {
			toTruncate = append(toTruncate, t)
		}
	}

	if len(toTruncate) == 0 {
		slog.Warn("No app tables found to reset")
		return nil
	}

	stmt := "TRUNCATE TABLE " + joinIdentifiers(toTruncate) + " RESTART IDENTITY CASCADE;"
	if _, err := db.ExecWithLog(ctx, stmt); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	slog.Info("App tables truncated successfully", "tables", toTruncate)
	return nil
}

func joinIdentifiers(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", n)
	}
	return out
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Info("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Duration("took", duration),
	)
	return result, nil
}
