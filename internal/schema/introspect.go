package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/koustreak/brewery/internal/database"
	"github.com/koustreak/brewery/internal/errs"
)

// Introspector implements Reader for SQLite using the schema table and the
// table-valued PRAGMA functions.
type Introspector struct {
	q database.Querier
}

// NewIntrospector creates a schema introspector over q.
func NewIntrospector(q database.Querier) *Introspector {
	return &Introspector{q: q}
}

func schemaName(schema string) string {
	if schema == "" {
		return "main"
	}
	return schema
}

// masterTable returns the qualified schema table, escaped for use inside a
// statement template.
func masterTable(schema string) string {
	ident := database.QuoteIdent(schemaName(schema)) + ".sqlite_master"
	return strings.ReplaceAll(ident, "%", "%%")
}

// ListTables returns all user-defined table names in the given schema
func (i *Introspector) ListTables(schema string) ([]string, error) {
	st, err := i.q.Formatter().Format(
		"SELECT name FROM " + masterTable(schema) +
			" WHERE type = 'table' AND name NOT LIKE 'sqlite\\_%%' ESCAPE '\\' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	cur := i.q.Query(st)
	defer cur.Close()

	tables := []string{}
	for ; cur.Valid(); cur.Next() {
		name, err := cur.ColumnString(0)
		if err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// TableExists checks whether a specific table exists
func (i *Introspector) TableExists(schema, table string) (bool, error) {
	st, err := i.q.Formatter().Bind(
		"SELECT 1 FROM "+masterTable(schema)+" WHERE type = 'table' AND name = '%'", table)
	if err != nil {
		return false, fmt.Errorf("table exists check: %w", err)
	}

	cur := i.q.Query(st)
	defer cur.Close()
	if err := cur.Err(); err != nil {
		return false, fmt.Errorf("table exists check: %w", err)
	}
	return cur.Valid(), nil
}

// InspectTable returns column details for a single table
func (i *Introspector) InspectTable(schema, table string) (*TableInfo, error) {
	st, err := i.q.Formatter().Bind(
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info('%', '%') ORDER BY cid`,
		table, schemaName(schema))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s.%s: %w", schemaName(schema), table, err)
	}

	unique, err := i.uniqueColumns(schema, table)
	if err != nil {
		return nil, err
	}

	cur := i.q.Query(st)
	defer cur.Close()

	info := &TableInfo{Schema: schemaName(schema), Name: table}
	for ; cur.Valid(); cur.Next() {
		var col ColumnInfo
		var notNull, pk int

		if col.Name, err = cur.ColumnString(0); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if col.DataType, err = cur.ColumnString(1); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if notNull, err = cur.ColumnInt(2); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if null, _ := cur.ColumnIsNull(3); !null {
			def, _ := cur.ColumnString(3)
			col.DefaultValue = &def
		}
		if pk, err = cur.ColumnInt(4); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		col.IsPrimaryKey = pk > 0
		col.IsNullable = notNull == 0 && !col.IsPrimaryKey
		col.IsUnique = unique[col.Name]
		col.MaxLength = declaredLength(col.DataType)
		info.Columns = append(info.Columns, col)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("inspect table %s.%s: %w", info.Schema, table, err)
	}
	if len(info.Columns) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %s.%s not found or has no columns", info.Schema, table)
	}
	return info, nil
}

// uniqueColumns returns the columns covered on their own by a UNIQUE
// constraint.
func (i *Introspector) uniqueColumns(schema, table string) (map[string]bool, error) {
	st, err := i.q.Formatter().Bind(
		`SELECT name FROM pragma_index_list('%', '%') WHERE "unique" = 1 AND origin = 'u'`,
		table, schemaName(schema))
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	cur := i.q.Query(st)
	var indexes []string
	for ; cur.Valid(); cur.Next() {
		name, _ := cur.ColumnString(0)
		indexes = append(indexes, name)
	}
	err = cur.Err()
	_ = cur.Close()
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	unique := make(map[string]bool)
	for _, index := range indexes {
		st, err := i.q.Formatter().Bind(`SELECT name FROM pragma_index_info('%', '%')`, index, schemaName(schema))
		if err != nil {
			return nil, fmt.Errorf("inspect index %s: %w", index, err)
		}
		cols, err := database.ScanRows(i.q.Query(st))
		if err != nil {
			return nil, fmt.Errorf("inspect index %s: %w", index, err)
		}
		if len(cols) == 1 {
			if name, ok := cols[0]["name"].(string); ok {
				unique[name] = true
			}
		}
	}
	return unique, nil
}

// declaredLength extracts n from declared types such as VARCHAR(n).
func declaredLength(dataType string) *int {
	open := strings.IndexByte(dataType, '(')
	end := strings.IndexByte(dataType, ')')
	if open < 0 || end < open {
		return nil
	}
	arg := strings.TrimSpace(dataType[open+1 : end])
	if comma := strings.IndexByte(arg, ','); comma >= 0 {
		arg = strings.TrimSpace(arg[:comma])
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil
	}
	return &n
}

// InspectSchema returns all tables and foreign keys in the schema
func (i *Introspector) InspectSchema(schema string) (*SchemaInfo, error) {
	tables, err := i.ListTables(schema)
	if err != nil {
		return nil, err
	}

	info := &SchemaInfo{Tables: []TableInfo{}}
	for _, table := range tables {
		ti, err := i.InspectTable(schema, table)
		if err != nil {
			return nil, err
		}
		info.Tables = append(info.Tables, *ti)
	}

	fks, err := i.ListForeignKeys(schema)
	if err != nil {
		return nil, err
	}
	info.ForeignKeys = fks

	return info, nil
}

// ListForeignKeys returns all FK relationships in the schema. SQLite does
// not name foreign keys, so names are derived as fk_<table>_<id>.
func (i *Introspector) ListForeignKeys(schema string) ([]ForeignKey, error) {
	tables, err := i.ListTables(schema)
	if err != nil {
		return nil, err
	}

	fks := []ForeignKey{}
	for _, table := range tables {
		st, err := i.q.Formatter().Bind(
			`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list('%', '%') ORDER BY id, seq`,
			table, schemaName(schema))
		if err != nil {
			return nil, fmt.Errorf("list foreign keys: %w", err)
		}

		rows, err := database.ScanRows(i.q.Query(st))
		if err != nil {
			return nil, fmt.Errorf("list foreign keys: %w", err)
		}
		for _, row := range rows {
			fk := ForeignKey{
				Name:       fmt.Sprintf("fk_%s_%v", table, row["id"]),
				FromTable:  table,
				FromColumn: asString(row["from"]),
				ToTable:    asString(row["table"]),
				ToColumn:   asString(row["to"]),
			}
			if fk.ToColumn == "" {
				if fk.ToColumn, err = i.primaryKey(schema, fk.ToTable); err != nil {
					return nil, err
				}
			}
			fks = append(fks, fk)
		}
	}
	return fks, nil
}

// primaryKey returns the first primary key column of table, the implicit
// target of a REFERENCES clause without a column list.
func (i *Introspector) primaryKey(schema, table string) (string, error) {
	ti, err := i.InspectTable(schema, table)
	if err != nil {
		return "", err
	}
	for _, c := range ti.Columns {
		if c.IsPrimaryKey {
			return c.Name, nil
		}
	}
	return "rowid", nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
