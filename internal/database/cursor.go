package database

import (
	"github.com/koustreak/brewery/internal/errs"
	"zombiezen.com/go/sqlite"
)

// Cursor iterates the rows of one compiled query.
//
// A Cursor is the sole owner of its prepared statement; Close releases it.
// A cursor whose statement failed to compile is permanently exhausted and
// reports the compile error from Err.
//
// Typical use:
//
//	cur := conn.Query(st)
//	defer cur.Close()
//	for ; cur.Valid(); cur.Next() {
//	    name, _ := cur.ColumnString(1)
//	}
type Cursor struct {
	conn      *Connection
	stmt      *sqlite.Stmt
	statement Statement
	valid     bool
	err       error
}

// FailedCursor returns an exhausted cursor that reports err. Callers that
// cannot build a statement use it to keep the Query-returns-a-cursor shape.
func FailedCursor(err error) *Cursor {
	return &Cursor{err: err}
}

// Reset rewinds to before the first row and steps onto it.
// Calling Reset repeatedly yields the same first-row state.
func (c *Cursor) Reset() {
	if c.stmt == nil {
		return
	}
	c.valid = false
	// Reset repeats the error of the last failed step; the step below
	// reports anything that still fails.
	_ = c.stmt.Reset()
	c.err = nil
	c.step()
}

// Next advances to the following row. Once the cursor is exhausted, Next
// does nothing until Reset is called.
func (c *Cursor) Next() {
	if !c.valid {
		return
	}
	c.step()
}

func (c *Cursor) step() {
	row, err := c.stmt.Step()
	if err != nil {
		c.valid = false
		c.err = c.conn.report(mapError(err, "step failed"))
		return
	}
	c.valid = row
}

// Valid reports whether a row is currently available.
func (c *Cursor) Valid() bool {
	return c.valid
}

// Err returns the compile or step error that exhausted the cursor, if any.
// An empty result set is not an error.
func (c *Cursor) Err() error {
	return c.err
}

// Statement returns the statement the cursor was compiled from.
func (c *Cursor) Statement() Statement {
	return c.statement
}

// ColumnCount returns the number of columns in the result set.
// It does not depend on the cursor position.
func (c *Cursor) ColumnCount() int {
	if c.stmt == nil {
		return 0
	}
	return c.stmt.ColumnCount()
}

// ColumnName returns the name of column i.
func (c *Cursor) ColumnName(i int) (string, error) {
	if err := c.checkIndex(i); err != nil {
		return "", err
	}
	return c.stmt.ColumnName(i), nil
}

// ColumnNames returns every column name in ordinal order.
func (c *Cursor) ColumnNames() []string {
	names := make([]string, c.ColumnCount())
	for i := range names {
		names[i] = c.stmt.ColumnName(i)
	}
	return names
}

// ColumnInt reads column i of the current row as an int.
func (c *Cursor) ColumnInt(i int) (int, error) {
	if err := c.checkColumn(i); err != nil {
		return 0, err
	}
	return int(c.stmt.ColumnInt64(i)), nil
}

// ColumnInt64 reads column i of the current row as an int64.
func (c *Cursor) ColumnInt64(i int) (int64, error) {
	if err := c.checkColumn(i); err != nil {
		return 0, err
	}
	return c.stmt.ColumnInt64(i), nil
}

// ColumnFloat reads column i of the current row as a float32.
func (c *Cursor) ColumnFloat(i int) (float32, error) {
	if err := c.checkColumn(i); err != nil {
		return 0, err
	}
	return float32(c.stmt.ColumnFloat(i)), nil
}

// ColumnDouble reads column i of the current row as a float64.
func (c *Cursor) ColumnDouble(i int) (float64, error) {
	if err := c.checkColumn(i); err != nil {
		return 0, err
	}
	return c.stmt.ColumnFloat(i), nil
}

// ColumnString reads column i of the current row as text.
// NULL reads as the empty string; use ColumnIsNull to tell them apart.
func (c *Cursor) ColumnString(i int) (string, error) {
	if err := c.checkColumn(i); err != nil {
		return "", err
	}
	return c.stmt.ColumnText(i), nil
}

// ColumnIsNull reports whether column i of the current row is NULL.
func (c *Cursor) ColumnIsNull(i int) (bool, error) {
	if err := c.checkColumn(i); err != nil {
		return false, err
	}
	return c.stmt.ColumnType(i) == sqlite.TypeNull, nil
}

// Value reads column i of the current row using its dynamic type:
// int64, float64, string, []byte or nil.
func (c *Cursor) Value(i int) (any, error) {
	if err := c.checkColumn(i); err != nil {
		return nil, err
	}
	switch c.stmt.ColumnType(i) {
	case sqlite.TypeInteger:
		return c.stmt.ColumnInt64(i), nil
	case sqlite.TypeFloat:
		return c.stmt.ColumnFloat(i), nil
	case sqlite.TypeText:
		return c.stmt.ColumnText(i), nil
	case sqlite.TypeBlob:
		buf := make([]byte, c.stmt.ColumnLen(i))
		c.stmt.ColumnBytes(i, buf)
		return buf, nil
	default:
		return nil, nil
	}
}

// Values returns every column of the current row as text.
func (c *Cursor) Values() ([]string, error) {
	if !c.valid {
		return nil, errs.New(errs.ErrKindNoCurrentRow, "cursor has no current row")
	}
	return columnTexts(c.stmt), nil
}

// Clone compiles the same statement again and returns an independent
// cursor positioned at the first row. The receiver is not affected.
func (c *Cursor) Clone() *Cursor {
	if c.conn == nil {
		return &Cursor{statement: c.statement, err: c.err}
	}
	return c.conn.Query(c.statement)
}

// Close releases the prepared statement. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.stmt == nil {
		return nil
	}
	delete(c.conn.cursors, c)
	return c.finalize()
}

func (c *Cursor) finalize() error {
	stmt := c.stmt
	c.stmt = nil
	c.valid = false
	if err := stmt.Finalize(); err != nil {
		return mapError(err, "finalize failed")
	}
	return nil
}

func (c *Cursor) checkIndex(i int) error {
	if n := c.ColumnCount(); i < 0 || i >= n {
		return errs.Newf(errs.ErrKindColumnIndexOutOfRange, "column %d outside result set of %d columns", i, n)
	}
	return nil
}

func (c *Cursor) checkColumn(i int) error {
	if !c.valid {
		return errs.New(errs.ErrKindNoCurrentRow, "cursor has no current row")
	}
	return c.checkIndex(i)
}

// columnTexts renders the current row of stmt as text, NULL as "".
func columnTexts(stmt *sqlite.Stmt) []string {
	values := make([]string, stmt.ColumnCount())
	for i := range values {
		values[i] = stmt.ColumnText(i)
	}
	return values
}

func columnNames(stmt *sqlite.Stmt) []string {
	names := make([]string, stmt.ColumnCount())
	for i := range names {
		names[i] = stmt.ColumnName(i)
	}
	return names
}
