package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate(t *testing.T) {
	runTests(t, func() []test {
		return []test{
			test{
				"update entity by its own key",
				Update(users, SQLServer).
					Set(UserInfo{Id: 5, Name: "Sarah", Sex: 2}).
					WithKey(UserInfo{Id: 5}),
				"UPDATE [Base_UserInfo] SET [Name] = @Parameter1,[Sex] = @Parameter2,[Email] = NULL WHERE [Id] = @Parameter3",
				[]interface{}{"Sarah", 2, 5},
			},

			test{
				"update without null values",
				Update(users, SQLServer).
					NullValues(false).
					Set(UserInfo{Id: 5, Name: "Sarah", Sex: 2}).
					WithKey(5),
				"UPDATE [Base_UserInfo] SET [Name] = @Parameter1,[Sex] = @Parameter2 WHERE [Id] = @Parameter3",
				[]interface{}{"Sarah", 2, 5},
			},

			test{
				"partial update with where clause",
				Update(classes, MySQL).
					Set(struct{ Name string }{"Math"}).
					Where(Eq("CityId", 3)),
				"UPDATE `Base_Class` SET `Name` = ?Parameter1 WHERE `CityId` = ?Parameter2",
				[]interface{}{"Math", 3},
			},

			test{
				"update skips key and noupdate columns",
				Update(classes, PostgreSQL).
					Set(Class{ClassId: 1, Name: "Math", CityId: 3, Created: "2024-01-01"}).
					WithKey(1),
				`UPDATE "Base_Class" SET "Name" = $1,"CityId" = $2 WHERE "ClassId" = $3`,
				[]interface{}{"Math", 3, 1},
			},

			test{
				"update with map and several conditions",
				Update(users, Oracle).
					Set(map[string]interface{}{"Sex": 1, "Email": Null}).
					Where(Eq("Name", "Kate"), Or(IsNull("Email"), Like("Email", "%@old.com"))),
				`UPDATE "Base_UserInfo" SET "Sex" = :Parameter1,"Email" = NULL WHERE "Name" = :Parameter2 AND ("Email" IS NULL OR "Email" LIKE :Parameter3)`,
				[]interface{}{1, "Kate", "%@old.com"},
			},

			test{
				"update with assignments",
				Update(users, SQLite).
					Set(Assignments{Assign("Sex", 2), Assign("Name", "Sarah")}).
					Where(In("Id", 1, 2)),
				`UPDATE "Base_UserInfo" SET "Sex" = @Parameter1,"Name" = @Parameter2 WHERE "Id" IN (@Parameter3,@Parameter4)`,
				[]interface{}{2, "Sarah", 1, 2},
			},

			test{
				"update every row",
				Update(users, SQLServer).Set(Assign("Sex", 0)),
				"UPDATE [Base_UserInfo] SET [Sex] = @Parameter1",
				[]interface{}{0},
			},

			test{
				"single row batch",
				Update(users, MySQL).NullValues(false).Rows(UserInfo{Id: 7, Name: "Ann", Sex: 2}),
				"UPDATE `Base_UserInfo` SET `Name` = ?Parameter1,`Sex` = ?Parameter2 WHERE `Id` = ?Parameter3",
				[]interface{}{"Ann", 2, 7},
			},
		}
	})
}

func TestUpdateErrors(t *testing.T) {
	keyless, err := NewEntity("Logs", Column{Field: "Message", Insert: true, Update: true})
	require.NoError(t, err)

	runErrTests(t, func() []errTest {
		return []errTest{
			{"no values", Update(users, SQLServer).WithKey(1), ErrShapeMismatch},
			{"only ineligible columns", Update(users, SQLServer).Set(map[string]interface{}{"Id": 3}), ErrShapeMismatch},
			{"unknown column", Update(users, SQLServer).Set(map[string]interface{}{"Age": 3}), ErrShapeMismatch},
			{"entity without key", Update(keyless, SQLServer).Set(Assign("Message", "x")).WithKey(1), ErrNoKey},
			{"wrong number of key values", Update(users, SQLServer).Set(Assign("Name", "x")).WithKey(1, 2), ErrShapeMismatch},
			{"empty key", Update(users, SQLServer).Set(Assign("Name", "x")).WithKey(), ErrShapeMismatch},
			{"empty batch", Update(users, SQLServer).Rows(), ErrEmptyBatch},
			{"batch needs BuildAll", Update(users, SQLServer).Rows(UserInfo{Id: 1}, UserInfo{Id: 2}), ErrShapeMismatch},
			{"unknown where column", Update(users, SQLServer).Set(Assign("Name", "x")).Where(Eq("Age", 3)), ErrUnsupportedPredicate},
		}
	})
}

func TestUpdateWithKeyMatchesWhere(t *testing.T) {
	byKey, err := Update(users, MySQL).Set(Assign("Name", "Sarah")).WithKey(3).Build()
	require.NoError(t, err)

	byWhere, err := Update(users, MySQL).Set(Assign("Name", "Sarah")).Where(Eq("Id", 3)).Build()
	require.NoError(t, err)

	assert.Equal(t, byWhere.SQL(), byKey.SQL())
	assert.Equal(t, byWhere.Params().Values(), byKey.Params().Values())
}

func TestUpdateBuildAll(t *testing.T) {
	stmts, err := Update(users, SQLServer).
		NullValues(false).
		Rows([]UserInfo{
			{Id: 1, Name: "Sarah", Sex: 2},
			{Id: 2, Name: "Kate", Sex: 1, Email: strPtr("kate@example.com")},
		}).
		BuildAll()
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, "UPDATE [Base_UserInfo] SET [Name] = @Parameter1,[Sex] = @Parameter2 WHERE [Id] = @Parameter3", stmts[0].SQL())
	assert.Equal(t, []interface{}{"Sarah", 2, 1}, stmts[0].Params().Values())

	assert.Equal(t, "UPDATE [Base_UserInfo] SET [Name] = @Parameter1,[Sex] = @Parameter2,[Email] = @Parameter3 WHERE [Id] = @Parameter4", stmts[1].SQL())
	assert.Equal(t, []interface{}{"Kate", 1, "kate@example.com", 2}, stmts[1].Params().Values())
}

func TestUpdateBuildAllRowError(t *testing.T) {
	_, err := Update(users, SQLServer).
		Rows(
			map[string]interface{}{"Id": 1, "Name": "Sarah"},
			map[string]interface{}{"Name": "Kate"},
		).
		BuildAll()

	var mismatch *ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Row)
}

func TestUpdateCompositeKey(t *testing.T) {
	type Membership struct {
		GroupId int `sql:",key"`
		UserId  int `sql:",key"`
		Role    string
	}
	memberships, err := Describe[Membership]()
	require.NoError(t, err)

	stmt, err := Update(memberships, SQLServer).Set(Assign("Role", "admin")).WithKey(3, 9).Build()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE [Membership] SET [Role] = @Parameter1 WHERE [GroupId] = @Parameter2 AND [UserId] = @Parameter3", stmt.SQL())
	assert.Equal(t, []interface{}{"admin", 3, 9}, stmt.Params().Values())

	stmt, err = Update(memberships, SQLServer).Rows(Membership{GroupId: 3, UserId: 9, Role: "owner"}).Build()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"owner", 3, 9}, stmt.Params().Values())
}

func TestUpdateBuildIsRepeatable(t *testing.T) {
	for _, d := range dialects {
		t.Run(d.Name(), func(t *testing.T) {
			stmt := requireRepeatable(t, Update(users, d).
				Set(map[string]interface{}{"Sex": 1, "Name": "Sarah", "Email": nil}).
				Where(Or(In("Sex", 1, 2), And(Like("Name", "S%"), Not(IsNull("Email"))))).
				WithKey(5))

			assert.Equal(t, []interface{}{"Sarah", 1, 1, 2, "S%", 5}, stmt.Params().Values())
		})
	}
}
