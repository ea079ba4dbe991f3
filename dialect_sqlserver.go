package sqlgen

import "fmt"

// pageSnapshot is the temporary table unordered SQL Server pages are
// materialized into.
const pageSnapshot = "#PageSnapshot"

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string { return "sqlserver" }

func (sqlServerDialect) Type() DatabaseType { return DatabaseSQLServer }

func (sqlServerDialect) Quote(ident string) string {
	return quoteParts(ident, quoteWith("[", "]"))
}

func (sqlServerDialect) Placeholder(_ int, name string) string {
	return "@" + name
}

func (sqlServerDialect) BatchInsert(table string, columns []string, rows [][]string) string {
	return valuesInsert(table, columns, rows)
}

// Page uses OFFSET/FETCH, which SQL Server only accepts after an ORDER BY
// clause. Unordered queries are first copied into a temporary table, whose
// row numbers then select the page.
func (sqlServerDialect) Page(query, orderBy string, pageSize, pageIndex int) string {
	offset := pageOffset(pageSize, pageIndex)
	if orderBy != "" {
		return fmt.Sprintf(
			"%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
			withOrderBy(query, orderBy),
			offset,
			pageSize,
		)
	}

	return fmt.Sprintf(
		"SELECT ROW_NUMBER() OVER (ORDER BY (SELECT 0)) AS [PageRow], T.* INTO %[1]s FROM (%[2]s) AS T;"+
			"DELETE FROM %[1]s WHERE [PageRow] NOT BETWEEN %[3]d AND %[4]d;"+
			"ALTER TABLE %[1]s DROP COLUMN [PageRow];"+
			"SELECT * FROM %[1]s;"+
			"DROP TABLE %[1]s;",
		pageSnapshot,
		query,
		offset+1,
		offset+pageSize,
	)
}

func (sqlServerDialect) Regexp(_, _ string) (string, bool) {
	return "", false
}
