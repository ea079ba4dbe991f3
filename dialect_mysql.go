package sqlgen

import "fmt"

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Type() DatabaseType { return DatabaseMySQL }

func (mysqlDialect) Quote(ident string) string {
	return quoteParts(ident, quoteWith("`", "`"))
}

func (mysqlDialect) Placeholder(_ int, name string) string {
	return "?" + name
}

func (mysqlDialect) BatchInsert(table string, columns []string, rows [][]string) string {
	return valuesInsert(table, columns, rows)
}

func (mysqlDialect) Page(query, orderBy string, pageSize, pageIndex int) string {
	return fmt.Sprintf(
		"%s LIMIT %d,%d",
		withOrderBy(query, orderBy),
		pageOffset(pageSize, pageIndex),
		pageSize,
	)
}

func (mysqlDialect) Regexp(column, marker string) (string, bool) {
	return column + " REGEXP " + marker, true
}
