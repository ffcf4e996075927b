package database

import "time"

const (
	// DefaultStatementCapacity is the byte budget of a rendered statement,
	// terminating NUL included.
	DefaultStatementCapacity = 4096

	// DefaultColumnWidth is the field width used when the sink renders a row.
	DefaultColumnWidth = 20
)

// Config holds all settings needed to open the embedded database.
type Config struct {
	// Path is the database file. It is created when missing.
	// Example: "brewery.sqlite"
	Path string

	// ReadOnly opens the file without write access and never creates it.
	ReadOnly bool

	// StatementCapacity bounds every statement rendered by the connection's
	// formatter. Zero or negative means unbounded.
	StatementCapacity int

	// BusyTimeout is how long a statement waits on a locked database file
	// before failing with a timeout error.
	BusyTimeout time.Duration

	// ForeignKeys turns on foreign key enforcement for the connection.
	ForeignKeys bool
}

// DefaultConfig returns the settings the desktop application runs with.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:              path,
		StatementCapacity: DefaultStatementCapacity,
		BusyTimeout:       5 * time.Second,
		ForeignKeys:       false,
	}
}
