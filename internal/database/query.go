package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/brewery/internal/errs"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be bound as a parameter, so anything not
// listed here is rejected.
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"<":    true,
	">":    true,
	"<=":   true,
	">=":   true,
	"LIKE": true,
	"GLOB": true,
}

// SelectBuilder constructs a parameterized SELECT statement using a fluent API.
// Values are never interpolated into the SQL text; they are always bound.
//
// Usage:
//
//	st, err := Select("Drinks").
//	    Columns("ID", "Name").
//	    Where("PricePerLiter", "<", 12.5).
//	    OrderBy("Name", Asc).
//	    Limit(20).
//	    Build()
type SelectBuilder struct {
	table    string
	columns  []string
	where    []whereClause
	orderBy  []orderClause
	limit    *int
	offset   *int
	capacity int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for the given table.
func Select(table string) *SelectBuilder {
	return &SelectBuilder{table: table, capacity: DefaultStatementCapacity}
}

// Capacity bounds the rendered statement like a Formatter does.
func (b *SelectBuilder) Capacity(n int) *SelectBuilder {
	b.capacity = n
	return b
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. op must be one of the allowed comparison
// operators. Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip (for pagination).
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the bound Statement.
// Returns an InvalidInput error if any WHERE operator is not in the allowlist
// or a negative limit/offset was given.
func (b *SelectBuilder) Build() (Statement, error) {
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdent(b.table))

	var args []any

	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(strings.TrimSpace(w.op))
			if !validOps[op] {
				return Statement{}, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
			}
			parts = append(parts, fmt.Sprintf("%s %s ?", QuoteIdent(w.column), op))
			args = append(args, w.value)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = QuoteIdent(o.column) + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
	if b.limit != nil || b.offset != nil {
		limit := -1
		if b.limit != nil {
			if *b.limit < 0 {
				return Statement{}, errs.New(errs.ErrKindInvalidInput, "limit must not be negative")
			}
			limit = *b.limit
		}
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	if b.offset != nil {
		if *b.offset < 0 {
			return Statement{}, errs.New(errs.ErrKindInvalidInput, "offset must not be negative")
		}
		sb.WriteString(" OFFSET ?")
		args = append(args, *b.offset)
	}

	return newBoundStatement(sb.String(), args, b.capacity)
}

// QuoteIdent wraps a SQL identifier in double-quotes (ANSI standard).
// This safely handles reserved words and mixed-case names.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
