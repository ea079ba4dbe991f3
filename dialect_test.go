package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		ident    string
		expected string
	}{
		{SQLServer, "Users", "[Users]"},
		{SQLServer, "dbo.Users", "[dbo].[Users]"},
		{SQLServer, "odd]name", "[odd]]name]"},
		{SQLServer, "*", "*"},
		{SQLServer, "T.*", "[T].*"},
		{MySQL, "Users", "`Users`"},
		{MySQL, "odd`name", "`odd``name`"},
		{PostgreSQL, "public.Users", `"public"."Users"`},
		{PostgreSQL, `odd"name`, `"odd""name"`},
		{SQLite, "Users", `"Users"`},
		{Oracle, "HR.Users", `"HR"."Users"`},
	}

	for _, tst := range tests {
		t.Run(tst.dialect.Name()+" "+tst.ident, func(t *testing.T) {
			assert.Equal(t, tst.expected, tst.dialect.Quote(tst.ident))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "@P1", SQLServer.Placeholder(1, "P1"))
	assert.Equal(t, "?Parameter2", MySQL.Placeholder(2, "Parameter2"))
	assert.Equal(t, "$3", PostgreSQL.Placeholder(3, "Parameter3"))
	assert.Equal(t, "@Parameter4", SQLite.Placeholder(4, "Parameter4"))
	assert.Equal(t, ":P5", Oracle.Placeholder(5, "P5"))
}

func TestPage(t *testing.T) {
	const query = "SELECT a FROM t"

	assert.Equal(t, "SELECT a FROM t ORDER BY a ASC OFFSET 40 ROWS FETCH NEXT 20 ROWS ONLY", SQLServer.Page(query, "a ASC", 20, 3))
	assert.Equal(t, "SELECT a FROM t LIMIT 40,20", MySQL.Page(query, "", 20, 3))
	assert.Equal(t, "SELECT a FROM t ORDER BY a ASC LIMIT 20 OFFSET 40", PostgreSQL.Page(query, "a ASC", 20, 3))
	assert.Equal(t, "SELECT a FROM t LIMIT 20 OFFSET 0", SQLite.Page(query, "", 20, -2))
	assert.Equal(t, "SELECT a FROM t OFFSET 0 ROWS FETCH NEXT 1 ROWS ONLY", Oracle.Page(query, "", 1, 1))

	assert.Equal(t,
		"SELECT ROW_NUMBER() OVER (ORDER BY (SELECT 0)) AS [PageRow], T.* INTO #PageSnapshot FROM (SELECT a FROM t) AS T;"+
			"DELETE FROM #PageSnapshot WHERE [PageRow] NOT BETWEEN 1 AND 20;"+
			"ALTER TABLE #PageSnapshot DROP COLUMN [PageRow];"+
			"SELECT * FROM #PageSnapshot;"+
			"DROP TABLE #PageSnapshot;",
		SQLServer.Page(query, "", 20, 0),
	)
}

func TestBatchInsert(t *testing.T) {
	rows := [][]string{{"@P1", "NULL"}, {"@P2", "@P3"}}

	assert.Equal(t, "INSERT INTO [t] ([a],[b]) VALUES (@P1,NULL),(@P2,@P3)", SQLServer.BatchInsert("[t]", []string{"[a]", "[b]"}, rows))
	assert.Equal(t, `INSERT INTO "t" ("a","b") SELECT @P1,NULL FROM DUAL UNION ALL SELECT @P2,@P3 FROM DUAL`, Oracle.BatchInsert(`"t"`, []string{`"a"`, `"b"`}, rows))
}

func TestRegexpSupport(t *testing.T) {
	for _, d := range []Dialect{SQLServer, SQLite} {
		_, ok := d.Regexp("a", "b")
		assert.False(t, ok, d.Name())
	}
	for _, d := range []Dialect{MySQL, PostgreSQL, Oracle} {
		_, ok := d.Regexp("a", "b")
		assert.True(t, ok, d.Name())
	}
}

func TestDatabaseType(t *testing.T) {
	tests := map[string]DatabaseType{
		"sqlserver":  DatabaseSQLServer,
		"MSSQL":      DatabaseSQLServer,
		"mysql":      DatabaseMySQL,
		"mariadb":    DatabaseMySQL,
		"PostgreSQL": DatabasePostgreSQL,
		"pgx":        DatabasePostgreSQL,
		" sqlite3 ":  DatabaseSQLite,
		"oracle":     DatabaseOracle,
		"godror":     DatabaseOracle,
	}
	for name, expected := range tests {
		parsed, err := ParseDatabaseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, parsed, name)
		assert.Equal(t, expected, parsed.Dialect().Type(), name)
	}

	_, err := ParseDatabaseType("db2")
	assert.Error(t, err)

	assert.Nil(t, DatabaseType(0).Dialect())
	assert.Equal(t, "DatabaseType(9)", DatabaseType(9).String())
	assert.Equal(t, "postgres", DatabasePostgreSQL.String())
}

func TestDatabaseTypeYAML(t *testing.T) {
	var cfg struct {
		Type DatabaseType `yaml:"type"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("type: postgresql\n"), &cfg))
	assert.Equal(t, DatabasePostgreSQL, cfg.Type)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "type: postgres\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("type: db2\n"), &cfg))
}
