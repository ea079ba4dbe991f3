// Package sqlgen generates parameterized SQL statements from entity
// descriptions, for SQL Server, MySQL, PostgreSQL, SQLite and Oracle.
//
// An entity is a Go struct whose fields map to the columns of a table.
// Describe resolves the struct's metadata (table name, columns, primary
// key, which columns may be inserted or updated) once and caches it. The
// statement builders then turn the metadata, values and conditions into a
// Statement: the SQL text and its parameters, named and ordered exactly as
// they appear in the text.
//
//	type UserInfo struct {
//		Id    int    `sql:",key,auto"`
//		Name  string
//		Sex   int
//		Email *string
//	}
//
//	func (UserInfo) TableName() string { return "Base_UserInfo" }
//
//	users := sqlgen.MustDescribe[UserInfo]()
//
//	stmt, err := sqlgen.InsertInto(users, sqlgen.SQLServer).
//		Values(UserInfo{Name: "Sarah", Sex: 2}).
//		Build()
//	// INSERT INTO [Base_UserInfo] ([Name],[Sex],[Email]) VALUES (@P1,@P2,NULL)
//
//	stmt, err = sqlgen.Update(users, sqlgen.MySQL).
//		Set(struct{ Sex int }{1}).
//		WithKey(2).
//		Build()
//	// UPDATE `Base_UserInfo` SET `Sex` = ?Parameter1 WHERE `Id` = ?Parameter2
//
// Builders are values: every method returns a modified copy, so a partially
// configured builder can be shared and extended safely.
//
// sqlgen does not require you to create your database connections through
// its API. Wrap an existing `*sql.DB` or `*sqlx.DB` with New or Newx to
// execute statements; parameters are rebound to the driver's bindvar style
// and rows are scanned with sqlx.
//
//	db := sqlgen.New(sqlDB, "mysql", sqlgen.MySQL)
//
//	var list []UserInfo
//	total, err := db.Select(users).
//		Where(sqlgen.StartsWith("Name", "Sa")).
//		OrderBy(sqlgen.Desc("Id")).
//		Page(20, 1).
//		GetPage(ctx, &list)
//
// Transactions are run with Transactional, and are automatically committed
// or rolled back.
package sqlgen
