package schema

// Reader is the interface for introspecting a database schema.
// An empty schema name means "main".
type Reader interface {
	// ListTables returns all user tables in the given schema, sorted by name.
	ListTables(schema string) ([]string, error)

	// TableExists checks whether a table exists
	TableExists(schema, table string) (bool, error)

	// InspectTable returns full column info for a table
	InspectTable(schema, table string) (*TableInfo, error)

	// ListForeignKeys returns every foreign key declared in the schema
	ListForeignKeys(schema string) ([]ForeignKey, error)

	// InspectSchema returns the full schema (all tables + foreign keys)
	InspectSchema(schema string) (*SchemaInfo, error)
}

var _ Reader = (*Introspector)(nil)
