package sqlgen

import (
	"github.com/go-openapi/inflect"
	"github.com/iancoleman/strcase"
)

// NamingStrategy derives physical table and column names for fields and
// types that do not declare one explicitly.
type NamingStrategy interface {
	Table(typeName string) string
	Column(fieldName string) string
}

// IdentityNaming uses Go type and field names as they are.
type IdentityNaming struct{}

// Table returns typeName unchanged.
func (IdentityNaming) Table(typeName string) string { return typeName }

// Column returns fieldName unchanged.
func (IdentityNaming) Column(fieldName string) string { return fieldName }

// SnakeNaming converts names to snake_case (e.g. "AccountId" becomes
// "account_id"). If Plural is set, table names are pluralised as well
// ("UserInfo" becomes "user_infos").
type SnakeNaming struct {
	Plural bool
}

// Table converts typeName to a snake_case table name.
func (n SnakeNaming) Table(typeName string) string {
	name := strcase.ToSnake(typeName)
	if n.Plural {
		name = inflect.Pluralize(name)
	}
	return name
}

// Column converts fieldName to a snake_case column name.
func (SnakeNaming) Column(fieldName string) string {
	return strcase.ToSnake(fieldName)
}
