package sqlgen

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Type() DatabaseType { return DatabaseSQLite }

func (sqliteDialect) Quote(ident string) string {
	return quoteParts(ident, quoteWith(`"`, `"`))
}

func (sqliteDialect) Placeholder(_ int, name string) string {
	return "@" + name
}

func (sqliteDialect) BatchInsert(table string, columns []string, rows [][]string) string {
	return valuesInsert(table, columns, rows)
}

func (sqliteDialect) Page(query, orderBy string, pageSize, pageIndex int) string {
	return limitOffset(query, orderBy, pageSize, pageIndex)
}

// Regexp is not supported: SQLite only provides the REGEXP operator when
// the application registers a regexp() function.
func (sqliteDialect) Regexp(_, _ string) (string, bool) {
	return "", false
}
