package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jewelpalace/storefront/internal/store"
)

func TestSplitSQLStatements(t *testing.T) {
	stmts := splitSQLStatements(schemaFor(MySQL))
	assert.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS records")

	stmts = splitSQLStatements(schemaFor(Postgres))
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "CREATE INDEX IF NOT EXISTS")
}

func TestBindRewritesPlaceholdersForPostgres(t *testing.T) {
	pg := &DB{dialect: Postgres}
	assert.Equal(t, "SELECT body FROM records WHERE kind = $1 AND id = $2",
		pg.bind("SELECT body FROM records WHERE kind = ? AND id = ?"))

	my := &DB{dialect: MySQL}
	assert.Equal(t, "DELETE FROM records WHERE id = ?", my.bind("DELETE FROM records WHERE id = ?"))
}

func TestUpsertSQLPerDialect(t *testing.T) {
	assert.Contains(t, (&DB{dialect: MySQL}).upsertSQL(), "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, (&DB{dialect: Postgres}).upsertSQL(), "ON CONFLICT (kind, id)")
}

func TestDialectDriver(t *testing.T) {
	assert.Equal(t, "mysql", MySQL.driver())
	assert.Equal(t, "pgx", Postgres.driver())
}

func TestWrapConnErr(t *testing.T) {
	err := wrapConnErr("get record", fmt.Errorf("dial tcp: connection refused"))
	assert.True(t, errors.Is(err, store.ErrUnavailable))

	err = wrapConnErr("get record", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, store.ErrUnavailable))

	err = wrapConnErr("get record", errors.New("syntax error"))
	assert.False(t, errors.Is(err, store.ErrUnavailable))
}
