package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect abstracts the differences between the supported SQL engines.
type Dialect interface {
	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN returns the data source name for the connection.
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders if the engine needs another syntax.
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether the driver supports LastInsertId().
	SupportsLastInsertId() bool

	// LockingClause returns the suffix for a locking read ("FOR UPDATE"),
	// or "" for engines that serialize writers themselves.
	LockingClause() string

	// ConfigureConnection applies engine-specific connection settings.
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the per-engine migrations directory name.
	MigrationsSubdir() string
}

// DialectConfig holds connection parameters. Path is used by SQLite,
// URL by PostgreSQL and MySQL.
type DialectConfig struct {
	Path string
	URL  string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
