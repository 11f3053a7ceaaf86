package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/store"
)

// Dialect selects the SQL flavour of the record table
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

func (d Dialect) driver() string {
	if d == Postgres {
		return "pgx"
	}
	return "mysql"
}

// DB wraps the database connection with metrics and stores records in a
// single table keyed by (kind, id)
type DB struct {
	*sql.DB
	dialect          Dialect
	connectionActive metric.Int64Gauge
	connectionIdle   metric.Int64Gauge
	serviceName      string
}

var _ store.Store = (*DB)(nil)

// NewDB creates a new database connection with OpenTelemetry instrumentation
func NewDB(dialect Dialect, dsn string, meter metric.Meter, serviceName string) (*DB, error) {
	driverName, err := otelsql.Register(dialect.driver(),
		otelsql.WithAttributes(
			attribute.String("db.system", string(dialect)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", store.ErrUnavailable, err)
	}

	connectionActive, err := meter.Int64Gauge(
		"db.client.connections.active",
		metric.WithDescription("Number of active database connections"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection active gauge: %w", err)
	}

	connectionIdle, err := meter.Int64Gauge(
		"db.client.connections.idle",
		metric.WithDescription("Number of idle database connections"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection idle gauge: %w", err)
	}

	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(
		attribute.String("db.system", string(dialect)),
		attribute.String("service.name", serviceName),
	)); err != nil {
		zap.L().Warn("failed to register otelsql stats metrics", zap.Error(err))
	}

	return &DB{
		DB:               db,
		dialect:          dialect,
		connectionActive: connectionActive,
		connectionIdle:   connectionIdle,
		serviceName:      serviceName,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// InitSchema creates the record table for the dialect
func (db *DB) InitSchema(ctx context.Context) error {
	statements := splitSQLStatements(schemaFor(db.dialect))

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement %d: %w\nStatement: %s", i+1, err, stmt)
		}
	}

	zap.L().Info("database schema initialized", zap.String("dialect", string(db.dialect)))
	return nil
}

// ReportPoolStats records the current pool usage on the connection gauges
func (db *DB) ReportPoolStats(ctx context.Context) {
	stats := db.Stats()
	attrs := metric.WithAttributes(
		attribute.String("db.system", string(db.dialect)),
		attribute.String("service.name", db.serviceName),
	)
	db.connectionActive.Record(ctx, int64(stats.InUse), attrs)
	db.connectionIdle.Record(ctx, int64(stats.Idle), attrs)
}

func schemaFor(d Dialect) string {
	if d == Postgres {
		return `
-- record table, one row per stored record
CREATE TABLE IF NOT EXISTS records (
    kind       VARCHAR(32)  NOT NULL,
    id         VARCHAR(128) NOT NULL,
    body       JSONB        NOT NULL,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS idx_records_kind_created ON records (kind, created_at);
`
	}
	return `
-- record table, one row per stored record
CREATE TABLE IF NOT EXISTS records (
    kind       VARCHAR(32)  NOT NULL,
    id         VARCHAR(128) NOT NULL,
    body       JSON         NOT NULL,
    created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    PRIMARY KEY (kind, id),
    INDEX idx_records_kind_created (kind, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
}

// bind rewrites ? placeholders to $n for postgres
func (db *DB) bind(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) upsertSQL() string {
	if db.dialect == Postgres {
		return `INSERT INTO records (kind, id, body) VALUES ($1, $2, $3)
ON CONFLICT (kind, id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`
	}
	return `INSERT INTO records (kind, id, body) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = CURRENT_TIMESTAMP(6)`
}

// wrapConnErr marks driver connection failures as store.ErrUnavailable
func wrapConnErr(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "bad connection") {
		return fmt.Errorf("failed to %s: %w: %w", op, store.ErrUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// Get returns the record body for (kind, id)
func (db *DB) Get(ctx context.Context, kind store.Kind, id string) ([]byte, error) {
	var body []byte
	err := db.QueryRowContext(ctx, db.bind("SELECT body FROM records WHERE kind = ? AND id = ?"), string(kind), id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, wrapConnErr("get record", err)
	}
	return body, nil
}

// List returns every record of the kind in insertion order
func (db *DB) List(ctx context.Context, kind store.Kind) ([][]byte, error) {
	rows, err := db.QueryContext(ctx, db.bind("SELECT body FROM records WHERE kind = ? ORDER BY created_at, id"), string(kind))
	if err != nil {
		return nil, wrapConnErr("list records", err)
	}
	defer rows.Close()

	out := [][]byte{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, body)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapConnErr("iterate records", err)
	}
	return out, nil
}

// Put upserts the record body
func (db *DB) Put(ctx context.Context, kind store.Kind, id string, record []byte) error {
	if _, err := db.ExecContext(ctx, db.upsertSQL(), string(kind), id, string(record)); err != nil {
		return wrapConnErr("put record", err)
	}
	return nil
}

// Delete removes the record if present
func (db *DB) Delete(ctx context.Context, kind store.Kind, id string) error {
	if _, err := db.ExecContext(ctx, db.bind("DELETE FROM records WHERE kind = ? AND id = ?"), string(kind), id); err != nil {
		return wrapConnErr("delete record", err)
	}
	return nil
}

// splitSQLStatements splits a SQL string into individual statements
func splitSQLStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var cleanedLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			cleanedLines = append(cleanedLines, line)
		}
	}

	statements := strings.Split(strings.Join(cleanedLines, "\n"), ";")

	var result []string
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
