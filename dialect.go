package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect supplies the database specific parts of generated SQL. All methods
// are pure functions of their arguments.
type Dialect interface {
	// Name returns the dialect's name (e.g. "mysql")
	Name() string

	// Type returns the database type the dialect renders SQL for
	Type() DatabaseType

	// Quote quotes an identifier. Dotted names ("dbo.Users") are quoted
	// part by part, and "*" is returned as is.
	Quote(ident string) string

	// Placeholder returns the marker of the index-th (1-based) parameter of
	// a statement, whose unprefixed name is name (e.g. "P1", "Parameter3").
	Placeholder(index int, name string) string

	// BatchInsert renders a multi-row INSERT statement. table and columns
	// are already quoted, every row holds one rendered value expression
	// (parameter marker or NULL) per column.
	BatchInsert(table string, columns []string, rows [][]string) string

	// Page wraps query in the dialect's paging syntax. orderBy is the
	// rendered ORDER BY list without the keywords, or empty. pageIndex is
	// 1-based, values smaller than 1 are treated as 1. pageSize must be
	// positive.
	Page(query, orderBy string, pageSize, pageIndex int) string

	// Regexp renders a regular expression match of column against the
	// parameter marker. It returns false if the dialect has no regular
	// expression operator.
	Regexp(column, marker string) (string, bool)
}

// DatabaseType identifies one of the supported databases.
type DatabaseType int

const (
	// DatabaseSQLServer is Microsoft SQL Server
	DatabaseSQLServer DatabaseType = iota + 1
	// DatabaseMySQL is MySQL or MariaDB
	DatabaseMySQL
	// DatabasePostgreSQL is PostgreSQL
	DatabasePostgreSQL
	// DatabaseSQLite is SQLite
	DatabaseSQLite
	// DatabaseOracle is Oracle (12c or newer)
	DatabaseOracle
)

// Dialects of the supported databases.
var (
	SQLServer  Dialect = sqlServerDialect{}
	MySQL      Dialect = mysqlDialect{}
	PostgreSQL Dialect = postgresDialect{}
	SQLite     Dialect = sqliteDialect{}
	Oracle     Dialect = oracleDialect{}
)

// Dialect returns the dialect of the database type, or nil for unknown
// types.
func (t DatabaseType) Dialect() Dialect {
	switch t {
	case DatabaseSQLServer:
		return SQLServer
	case DatabaseMySQL:
		return MySQL
	case DatabasePostgreSQL:
		return PostgreSQL
	case DatabaseSQLite:
		return SQLite
	case DatabaseOracle:
		return Oracle
	default:
		return nil
	}
}

func (t DatabaseType) String() string {
	switch t {
	case DatabaseSQLServer:
		return "sqlserver"
	case DatabaseMySQL:
		return "mysql"
	case DatabasePostgreSQL:
		return "postgres"
	case DatabaseSQLite:
		return "sqlite"
	case DatabaseOracle:
		return "oracle"
	default:
		return "DatabaseType(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseDatabaseType parses a database name. Common driver names are
// accepted as aliases.
func ParseDatabaseType(name string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlserver", "mssql", "azuresql":
		return DatabaseSQLServer, nil
	case "mysql", "mariadb":
		return DatabaseMySQL, nil
	case "postgres", "postgresql", "pgx", "pq":
		return DatabasePostgreSQL, nil
	case "sqlite", "sqlite3":
		return DatabaseSQLite, nil
	case "oracle", "godror", "oci8", "ora":
		return DatabaseOracle, nil
	default:
		return 0, fmt.Errorf("sqlgen: unknown database type %q", name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler, so database types can
// be read from configuration files.
func (t *DatabaseType) UnmarshalText(text []byte) error {
	parsed, err := ParseDatabaseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t DatabaseType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func quoteParts(ident string, quote func(part string) string) string {
	if ident == "*" {
		return ident
	}
	parts := strings.Split(ident, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		parts[i] = quote(part)
	}
	return strings.Join(parts, ".")
}

func quoteWith(open, close string) func(string) string {
	return func(part string) string {
		return open + strings.ReplaceAll(part, close, close+close) + close
	}
}

func valuesInsert(table string, columns []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + table + " (" + strings.Join(columns, ",") + ") VALUES ")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(" + strings.Join(row, ",") + ")")
	}
	return b.String()
}

func pageOffset(pageSize, pageIndex int) int {
	if pageIndex < 1 {
		pageIndex = 1
	}
	return pageSize * (pageIndex - 1)
}

func withOrderBy(query, orderBy string) string {
	if orderBy == "" {
		return query
	}
	return query + " ORDER BY " + orderBy
}

// limitOffset is the paging syntax shared by PostgreSQL and SQLite.
func limitOffset(query, orderBy string, pageSize, pageIndex int) string {
	return fmt.Sprintf(
		"%s LIMIT %d OFFSET %d",
		withOrderBy(query, orderBy),
		pageSize,
		pageOffset(pageSize, pageIndex),
	)
}
