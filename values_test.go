package sqlgen

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		src      interface{}
		nulls    bool
		expected []string
	}{
		{"entity", UserInfo{Name: "a"}, true, []string{"Name", "Sex", "Email"}},
		{"entity without nulls", UserInfo{Name: "a"}, false, []string{"Name", "Sex"}},
		{"entity pointer", &UserInfo{Name: "a", Email: strPtr("e")}, false, []string{"Name", "Sex", "Email"}},
		{"map in declaration order", map[string]interface{}{"Email": "e", "Name": "a"}, true, []string{"Name", "Email"}},
		{"map with nil value", map[string]interface{}{"Email": nil, "Name": "a"}, false, []string{"Name"}},
		{"typed map", map[string]string{"Name": "a"}, true, []string{"Name"}},
		{"projection struct", struct {
			Sex  int
			Name string `db:"Name"`
			Skip int    `sql:"-"`
		}{1, "a", 2}, true, []string{"Sex", "Name"}},
		{"assignments in list order", Assignments{Assign("Sex", 1), Assign("Name", "a")}, true, []string{"Sex", "Name"}},
		{"single assignment", Assign("Name", "a"), true, []string{"Name"}},
		{"explicit null without nulls", Assignments{Assign("Email", Null)}, false, []string{"Email"}},
		{"ineligible columns are dropped", map[string]interface{}{"Id": 1, "Name": "a"}, true, []string{"Name"}},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assignments, err := users.extract(tst.src, -1, insertable, tst.nulls)
			require.NoError(t, err)

			var names []string
			for _, a := range assignments {
				names = append(names, a.col.Name)
			}
			assert.Equal(t, tst.expected, names)
		})
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
	}{
		{"nil", nil},
		{"nil pointer", (*UserInfo)(nil)},
		{"scalar", "Name"},
		{"slice", []string{"Name"}},
		{"int keyed map", map[int]interface{}{1: "a"}},
		{"unknown map key", map[string]interface{}{"Name": "a", "Zebra": 1, "Age": 2}},
		{"unknown struct field", struct{ Age int }{3}},
		{"column named twice", map[string]interface{}{"Created": "a", "CreatedAt": "b"}},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			_, err := classes.extract(tst.src, 4, insertable, true)
			var mismatch *ShapeMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, 4, mismatch.Row)
		})
	}
}

func TestExtractReportsFirstUnknownKey(t *testing.T) {
	_, err := users.extract(map[string]interface{}{"Name": "a", "Zebra": 1, "Age": 2}, -1, insertable, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Age"`)
}

func TestIsNullValue(t *testing.T) {
	var nilMap map[string]int
	var nilSlice []int

	assert.True(t, isNullValue(nil))
	assert.True(t, isNullValue(Null))
	assert.True(t, isNullValue((*int)(nil)))
	assert.True(t, isNullValue(nilMap))
	assert.True(t, isNullValue(nilSlice))
	assert.True(t, isNullValue(sql.NullString{}))

	assert.False(t, isNullValue(0))
	assert.False(t, isNullValue(""))
	assert.False(t, isNullValue([]byte{}))
	assert.False(t, isNullValue(sql.NullString{String: "a", Valid: true}))
}

func TestBindValue(t *testing.T) {
	n := 5
	pn := &n
	valid := sql.NullInt64{Int64: 3, Valid: true}

	assert.Nil(t, bindValue(nil))
	assert.Nil(t, bindValue(Null))
	assert.Nil(t, bindValue((*string)(nil)))
	assert.Equal(t, 5, bindValue(pn))
	assert.Equal(t, 5, bindValue(&pn))
	assert.Equal(t, "a", bindValue("a"))
	assert.Equal(t, valid, bindValue(valid))
	assert.Equal(t, &valid, bindValue(&valid))
}

func TestExpandRows(t *testing.T) {
	assert.Len(t, expandRows([]interface{}{UserInfo{}, UserInfo{}}), 2)
	assert.Len(t, expandRows([]interface{}{[]UserInfo{{}, {}, {}}}), 3)
	assert.Len(t, expandRows([]interface{}{Assignments{Assign("Name", "a"), Assign("Sex", 1)}}), 1)
	assert.Len(t, expandRows([]interface{}{map[string]interface{}{"Name": "a"}}), 1)
	assert.Empty(t, expandRows(nil))
}

func TestExpandValues(t *testing.T) {
	assert.Equal(t, []interface{}{1, 2}, expandValues([]interface{}{[]int{1, 2}}))
	assert.Equal(t, []interface{}{"a", "b"}, expandValues([]interface{}{[2]string{"a", "b"}}))
	assert.Equal(t, []interface{}{[]byte("ab")}, expandValues([]interface{}{[]byte("ab")}))
	assert.Equal(t, []interface{}{1, 2}, expandValues([]interface{}{1, 2}))
	assert.Equal(t, []interface{}{nil}, expandValues([]interface{}{nil}))
}
