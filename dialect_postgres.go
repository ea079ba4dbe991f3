package sqlgen

import (
	"strconv"

	"github.com/lib/pq"
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Type() DatabaseType { return DatabasePostgreSQL }

func (postgresDialect) Quote(ident string) string {
	return quoteParts(ident, pq.QuoteIdentifier)
}

// Placeholder returns positional markers ($1, $2, ...); PostgreSQL has no
// named parameters.
func (postgresDialect) Placeholder(index int, _ string) string {
	return "$" + strconv.Itoa(index)
}

func (postgresDialect) BatchInsert(table string, columns []string, rows [][]string) string {
	return valuesInsert(table, columns, rows)
}

func (postgresDialect) Page(query, orderBy string, pageSize, pageIndex int) string {
	return limitOffset(query, orderBy, pageSize, pageIndex)
}

func (postgresDialect) Regexp(column, marker string) (string, bool) {
	return column + " ~ " + marker, true
}
