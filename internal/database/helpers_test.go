package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestDB opens a fresh database file in a temp dir.
func openTestDB(t *testing.T) (*Connection, *Sink) {
	t.Helper()

	sink := NewSink(nil)
	conn, err := Open(context.Background(), DefaultConfig(filepath.Join(t.TempDir(), "brewery.sqlite")), sink)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, sink
}

func mustExec(t *testing.T, conn *Connection, sql string) {
	t.Helper()
	require.NoError(t, conn.Execute(Raw(sql)))
}

func mustBind(t *testing.T, template string, args ...any) Statement {
	t.Helper()
	st, err := Bind(template, args...)
	require.NoError(t, err)
	return st
}
