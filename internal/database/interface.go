package database

// Querier is the contract table mediators, the console and the server are
// written against. *Connection implements it.
type Querier interface {
	// Formatter returns the capacity-bounded formatter statements are built with.
	Formatter() *Formatter

	// Execute runs a non-query statement (or script) to completion.
	Execute(st Statement) error

	// ExecuteFunc runs st and hands every produced row to fn as text.
	ExecuteFunc(st Statement, fn RowFunc) error

	// Query compiles st and returns a cursor on its first row.
	// The caller must Close the cursor.
	Query(st Statement) *Cursor

	// Size counts the rows of a table.
	Size(table string) (int, error)

	// LastInsertID returns the rowid of the most recent INSERT.
	LastInsertID() int64
}

var _ Querier = (*Connection)(nil)
