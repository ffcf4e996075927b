// Package database is the data-access core of Brewery: a statement
// formatter, a cursor over compiled queries, the connection that owns the
// embedded SQLite file, and the sink that collects engine messages.
//
// Everything here is single-threaded. A Connection and the cursors it hands
// out must be driven from one goroutine at a time; wrap them in a lock (see
// the server package) before sharing. Statements run to completion on the
// calling goroutine with no cancellation.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/logger"
	"zombiezen.com/go/sqlite"
)

// RowFunc receives one produced row as text, NULL rendered as "".
// Returning a non-nil error aborts execution.
type RowFunc func(values, names []string) error

// Connection owns one SQLite database handle for its lifetime.
type Connection struct {
	conn      *sqlite.Conn
	cfg       *Config
	sink      *Sink
	log       *logger.Logger
	formatter *Formatter
	cursors   map[*Cursor]struct{}
}

// Open opens the database file named by cfg.Path, creating it when missing.
//
// Open failures are returned and also recorded in sink, so a UI that only
// watches the sink still sees them.
func Open(ctx context.Context, cfg *Config, sink *Sink) (*Connection, error) {
	if sink == nil {
		sink = NewSink(nil)
	}
	if cfg == nil || cfg.Path == "" {
		err := errs.New(errs.ErrKindInvalidInput, "database path is empty")
		sink.Log("[SQLite]: %", err.Message)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		sink.Log("[SQLite]: %", err)
		return nil, errs.Wrap(errs.ErrKindTimeout, "open cancelled", err)
	}

	flags := sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenWAL | sqlite.OpenURI
	if cfg.ReadOnly {
		flags = sqlite.OpenReadOnly | sqlite.OpenURI
	}

	conn, err := sqlite.OpenConn(cfg.Path, flags)
	if err != nil {
		sink.Log("[SQLite]: %", err)
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, fmt.Sprintf("open %q", cfg.Path), err)
	}
	if cfg.BusyTimeout > 0 {
		conn.SetBusyTimeout(cfg.BusyTimeout)
	}

	c := &Connection{
		conn:      conn,
		cfg:       cfg,
		sink:      sink,
		log:       sink.logger().With().Str("path", cfg.Path).Logger(),
		formatter: NewFormatter(cfg.StatementCapacity),
		cursors:   make(map[*Cursor]struct{}),
	}

	if cfg.ForeignKeys {
		if err := c.Execute(Raw("PRAGMA foreign_keys = ON")); err != nil {
			_ = conn.Close()
			return nil, errs.Wrap(errs.ErrKindConnectionFailed, "enable foreign keys", err)
		}
	}

	c.log.Debug("database opened")
	return c, nil
}

// Sink returns the sink failures are reported to.
func (c *Connection) Sink() *Sink {
	return c.sink
}

// Formatter returns the formatter bounded by the configured statement capacity.
func (c *Connection) Formatter() *Formatter {
	return c.formatter
}

// Path returns the database file path.
func (c *Connection) Path() string {
	return c.cfg.Path
}

// Execute runs every statement in st to completion, discarding any rows.
// Failures are logged to the sink and returned; nothing is retried.
func (c *Connection) Execute(st Statement) error {
	return c.ExecuteFunc(st, nil)
}

// ExecuteFunc runs every statement in st, calling fn once per produced row.
// Statements before a failing one stay applied.
func (c *Connection) ExecuteFunc(st Statement, fn RowFunc) error {
	if c.conn == nil {
		return c.report(errs.New(errs.ErrKindConnectionFailed, "connection is closed"))
	}

	sql := st.SQL()
	args := st.Args()
	for {
		sql = skipBlank(sql)
		if sql == "" {
			break
		}

		stmt, trailing, err := c.conn.PrepareTransient(sql)
		if err != nil {
			return c.report(mapError(err, "prepare failed"))
		}
		sql = sql[len(sql)-trailing:]

		n := stmt.BindParamCount()
		if n > len(args) {
			_ = stmt.Finalize()
			return c.report(errs.Newf(errs.ErrKindInvalidInput,
				"statement expects %d parameters, %d left", n, len(args)))
		}
		if err := bindArgs(stmt, args[:n]); err != nil {
			_ = stmt.Finalize()
			return c.report(mapError(err, "bind failed"))
		}
		args = args[n:]

		err = c.drain(stmt, fn)
		_ = stmt.Finalize()
		if err != nil {
			return err
		}
	}

	if len(args) > 0 {
		return c.report(errs.Newf(errs.ErrKindInvalidInput, "%d unused statement parameters", len(args)))
	}
	return nil
}

func (c *Connection) drain(stmt *sqlite.Stmt, fn RowFunc) error {
	var names []string
	for {
		row, err := stmt.Step()
		if err != nil {
			return c.report(mapError(err, "execute failed"))
		}
		if !row {
			return nil
		}
		if fn == nil {
			continue
		}
		if names == nil {
			names = columnNames(stmt)
		}
		if err := fn(columnTexts(stmt), names); err != nil {
			return c.report(errs.Wrap(errs.ErrKindAborted, "row callback aborted execution", err))
		}
	}
}

// Query compiles st and returns a cursor positioned at its first row.
//
// A compile failure is logged once to the sink and yields an exhausted
// cursor whose Err reports it. The caller owns the cursor and must Close it.
func (c *Connection) Query(st Statement) *Cursor {
	cur := &Cursor{conn: c, statement: st}
	if c.conn == nil {
		cur.err = c.report(errs.New(errs.ErrKindConnectionFailed, "connection is closed"))
		return cur
	}
	if skipBlank(st.SQL()) == "" {
		cur.err = c.report(errs.New(errs.ErrKindInvalidInput, "empty statement"))
		return cur
	}

	stmt, _, err := c.conn.PrepareTransient(st.SQL())
	if err != nil {
		cur.err = c.report(mapError(err, "prepare failed"))
		return cur
	}
	if err := bindArgs(stmt, st.Args()); err != nil {
		_ = stmt.Finalize()
		cur.err = c.report(mapError(err, "bind failed"))
		return cur
	}

	cur.stmt = stmt
	c.cursors[cur] = struct{}{}
	cur.Reset()
	return cur
}

// Size counts the rows of table by walking a SELECT * cursor.
func (c *Connection) Size(table string) (int, error) {
	st, err := c.formatter.Format("SELECT * FROM %", QuoteIdent(table))
	if err != nil {
		return 0, c.report(mapError(err, "size"))
	}

	cur := c.Query(st)
	defer cur.Close()

	n := 0
	for ; cur.Valid(); cur.Next() {
		n++
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// LastInsertID returns the rowid of the most recent successful INSERT.
func (c *Connection) LastInsertID() int64 {
	if c.conn == nil {
		return 0
	}
	return c.conn.LastInsertRowID()
}

// Changes returns the rows affected by the most recent statement.
func (c *Connection) Changes() int {
	if c.conn == nil {
		return 0
	}
	return c.conn.Changes()
}

// Snapshot returns a serialized image of the main database.
func (c *Connection) Snapshot() ([]byte, error) {
	if c.conn == nil {
		return nil, c.report(errs.New(errs.ErrKindConnectionFailed, "connection is closed"))
	}
	data, err := c.conn.Serialize("main")
	if err != nil {
		return nil, c.report(mapError(err, "snapshot failed"))
	}
	return data, nil
}

// Close finalizes any cursors still open and releases the database handle.
// Later calls are no-ops.
func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	for cur := range c.cursors {
		_ = cur.finalize()
	}
	c.cursors = nil

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return c.report(mapError(err, "close failed"))
	}
	c.log.Debug("database closed")
	return nil
}

// report records err in the sink and returns it.
func (c *Connection) report(err *errs.Error) error {
	c.sink.Log("[SQLite]: %", engineMessage(err))
	return err
}

// skipBlank drops leading whitespace and comments. The engine compiles
// comment-only text to no statement at all, so such text must not be stepped.
func skipBlank(sql string) string {
	for {
		sql = strings.TrimSpace(sql)
		switch {
		case strings.HasPrefix(sql, "--"):
			i := strings.IndexByte(sql, '\n')
			if i < 0 {
				return ""
			}
			sql = sql[i+1:]
		case strings.HasPrefix(sql, "/*"):
			i := strings.Index(sql[2:], "*/")
			if i < 0 {
				return ""
			}
			sql = sql[i+4:]
		default:
			return sql
		}
	}
}

func bindArgs(stmt *sqlite.Stmt, args []any) error {
	if n := stmt.BindParamCount(); n != len(args) {
		return errs.Newf(errs.ErrKindInvalidInput, "statement expects %d parameters, got %d", n, len(args))
	}
	for i, arg := range args {
		v, err := bindValue(arg)
		if err != nil {
			return err
		}
		param := i + 1
		switch v := v.(type) {
		case nil:
			stmt.BindNull(param)
		case int64:
			stmt.BindInt64(param, v)
		case float64:
			stmt.BindFloat(param, v)
		case string:
			stmt.BindText(param, v)
		case []byte:
			stmt.BindBytes(param, v)
		}
	}
	return nil
}
