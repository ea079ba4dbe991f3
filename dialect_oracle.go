package sqlgen

import (
	"fmt"
	"strings"
)

type oracleDialect struct{}

func (oracleDialect) Name() string { return "oracle" }

func (oracleDialect) Type() DatabaseType { return DatabaseOracle }

func (oracleDialect) Quote(ident string) string {
	return quoteParts(ident, quoteWith(`"`, `"`))
}

func (oracleDialect) Placeholder(_ int, name string) string {
	return ":" + name
}

// BatchInsert selects every row from DUAL and combines the rows with UNION
// ALL, since Oracle does not accept multiple rows in a VALUES list.
func (oracleDialect) BatchInsert(table string, columns []string, rows [][]string) string {
	selects := make([]string, len(rows))
	for i, row := range rows {
		selects[i] = "SELECT " + strings.Join(row, ",") + " FROM DUAL"
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ",") + ") " +
		strings.Join(selects, " UNION ALL ")
}

func (oracleDialect) Page(query, orderBy string, pageSize, pageIndex int) string {
	return fmt.Sprintf(
		"%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
		withOrderBy(query, orderBy),
		pageOffset(pageSize, pageIndex),
		pageSize,
	)
}

func (oracleDialect) Regexp(column, marker string) (string, bool) {
	return "REGEXP_LIKE(" + column + ", " + marker + ")", true
}
