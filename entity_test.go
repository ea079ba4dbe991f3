package sqlgen

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type Audit struct {
	CreatedBy string
	UpdatedBy string `db:"modified_by"`
}

type AccountEntry struct {
	Id          int
	AccountId   int
	DisplayName string
	Secret      string `sql:"-"`
	Legacy      string `db:"-"`
	internal    int
	Audit
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "UserInfo", users.Name())
	assert.Equal(t, "Base_UserInfo", users.Table())
	assert.Equal(t, reflect.TypeOf(UserInfo{}), users.Type())

	expected := []Column{
		{Field: "Id", Name: "Id", Insert: false, Update: false, Key: true},
		{Field: "Name", Name: "Name", Insert: true, Update: true},
		{Field: "Sex", Name: "Sex", Insert: true, Update: true},
		{Field: "Email", Name: "Email", Insert: true, Update: true},
	}
	cols := users.Columns()
	require.Len(t, cols, len(expected))
	for i, col := range cols {
		col.index = nil
		assert.Equal(t, expected[i], col)
	}

	keys := users.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "Id", keys[0].Field)
}

func TestDescribeTags(t *testing.T) {
	created, ok := classes.Column("Created")
	require.True(t, ok)
	assert.Equal(t, "CreatedAt", created.Name)
	assert.True(t, created.Insert)
	assert.False(t, created.Update)

	byName, ok := classes.Column("CreatedAt")
	require.True(t, ok)
	assert.Equal(t, "Created", byName.Field)

	city, _ := classes.Column("CityId")
	assert.False(t, city.Insert)
	assert.True(t, city.Update)

	key, _ := classes.Column("ClassId")
	assert.True(t, key.Key)
	assert.True(t, key.Insert)
	assert.False(t, key.Update)

	type Tagged struct {
		Code    string `sql:"code,pk,update"`
		Counter int    `sql:",identity"`
		Label   string `sql:",noinsert,noupdate"`
	}
	tagged, err := Describe[Tagged]()
	require.NoError(t, err)

	code, _ := tagged.Column("code")
	assert.True(t, code.Key)
	assert.True(t, code.Update)

	counter, _ := tagged.Column("Counter")
	assert.False(t, counter.Insert)
	assert.False(t, counter.Update)
	assert.False(t, counter.Key)

	label, _ := tagged.Column("Label")
	assert.False(t, label.Insert)
	assert.False(t, label.Update)
}

func TestDescribeEmbeddedAndIgnored(t *testing.T) {
	e, err := Describe[AccountEntry]()
	require.NoError(t, err)

	var fields, names []string
	for _, col := range e.Columns() {
		fields = append(fields, col.Field)
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"Id", "AccountId", "DisplayName", "CreatedBy", "UpdatedBy"}, fields)
	assert.Equal(t, []string{"Id", "AccountId", "DisplayName", "CreatedBy", "modified_by"}, names)

	stmt, err := InsertInto(e, MySQL).Values(AccountEntry{
		AccountId:   3,
		DisplayName: "Checking",
		Audit:       Audit{CreatedBy: "sarah", UpdatedBy: "kate"},
	}).Build()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `AccountEntry` (`Id`,`AccountId`,`DisplayName`,`CreatedBy`,`modified_by`) VALUES (?P1,?P2,?P3,?P4,?P5)", stmt.SQL())
	assert.Equal(t, []interface{}{0, 3, "Checking", "sarah", "kate"}, stmt.Params().Values())
}

func TestConventionalKey(t *testing.T) {
	e, err := Describe[AccountEntry]()
	require.NoError(t, err)

	keys := e.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "Id", keys[0].Field)
	assert.False(t, keys[0].Update)
	assert.True(t, keys[0].Insert)

	type Invoice struct {
		InvoiceID int
		Total     float64
	}
	invoices, err := Describe[Invoice]()
	require.NoError(t, err)
	require.Len(t, invoices.Keys(), 1)
	assert.Equal(t, "InvoiceID", invoices.Keys()[0].Field)

	type Payment struct {
		PaymentId int
		Id        int
	}
	payments, err := Describe[Payment]()
	require.NoError(t, err)
	require.Len(t, payments.Keys(), 1)
	assert.Equal(t, "Id", payments.Keys()[0].Field)

	strict, err := DescribeWith[Invoice](NewMapper(WithStrictKeys()))
	require.NoError(t, err)
	assert.Empty(t, strict.Keys())

	_, err = Update(strict, SQLServer).Set(Assign("Total", 3.5)).WithKey(1).Build()
	assert.ErrorIs(t, err, ErrNoKey)
	assert.True(t, IsMetadataError(err))
}

func TestMapperNaming(t *testing.T) {
	m := NewMapper(WithNaming(SnakeNaming{Plural: true}), WithTablePrefix("app_"))

	e, err := DescribeWith[AccountEntry](m)
	require.NoError(t, err)
	assert.Equal(t, "app_account_entries", e.Table())

	var names []string
	for _, col := range e.Columns() {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"id", "account_id", "display_name", "created_by", "modified_by"}, names)

	// TableName wins over prefix and naming
	u, err := DescribeWith[UserInfo](m)
	require.NoError(t, err)
	assert.Equal(t, "Base_UserInfo", u.Table())
	assert.Equal(t, "email", u.Columns()[3].Name)

	stmt, err := Select(e, PostgreSQL).Columns("DisplayName").WithKey(4).Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "display_name" AS "DisplayName" FROM "app_account_entries" WHERE "id" = $1`, stmt.SQL())

	assert.Equal(t, "user_info", SnakeNaming{}.Table("UserInfo"))
	assert.Equal(t, "UserInfo", IdentityNaming{}.Table("UserInfo"))
	assert.Equal(t, "Email", IdentityNaming{}.Column("Email"))
}

func TestDescribeErrors(t *testing.T) {
	_, err := Describe[int]()
	assert.ErrorIs(t, err, ErrNotStruct)
	assert.True(t, IsMetadataError(err))

	type Empty struct {
		hidden int
		Skip   string `sql:"-"`
	}
	_, err = Describe[Empty]()
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = NewMapper().Resolve(nil)
	assert.ErrorIs(t, err, ErrNotStruct)

	assert.Panics(t, func() { MustDescribe[string]() })
}

func TestResolveCaches(t *testing.T) {
	m := NewMapper()

	var g errgroup.Group
	results := make([]*Entity, 16)
	for i := range results {
		g.Go(func() error {
			e, err := m.Resolve(reflect.TypeOf(&UserInfo{}))
			results[i] = e
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, e := range results {
		assert.Same(t, results[0], e)
	}

	again, err := DescribeWith[UserInfo](m)
	require.NoError(t, err)
	assert.Same(t, results[0], again)
}

func TestNewEntity(t *testing.T) {
	e, err := NewEntity("dbo.Orders",
		Column{Field: "OrderId", Key: true},
		Column{Field: "CustomerName", Name: "customer_name", Insert: true, Update: true},
		Column{Name: "total", Insert: true, Update: true},
	)
	require.NoError(t, err)
	assert.Nil(t, e.Type())
	assert.Equal(t, "dbo.Orders", e.Name())

	total, ok := e.Column("total")
	require.True(t, ok)
	assert.Equal(t, "total", total.Field)

	stmt, err := Update(e, SQLServer).
		Set(map[string]interface{}{"CustomerName": "Sarah", "total": 12.5}).
		WithKey(map[string]interface{}{"OrderId": 4}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE [dbo].[Orders] SET [customer_name] = @Parameter1,[total] = @Parameter2 WHERE [OrderId] = @Parameter3", stmt.SQL())
	assert.Equal(t, []interface{}{"Sarah", 12.5, 4}, stmt.Params().Values())

	_, err = NewEntity("Empty")
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = NewEntity("Unnamed", Column{Insert: true})
	assert.ErrorIs(t, err, ErrNoColumns)
}
