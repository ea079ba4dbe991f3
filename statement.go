package sqlgen

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SQLStmt is implemented by all statement builders.
type SQLStmt interface {
	Build() (Statement, error)
}

// Statement is a generated SQL statement and its bound parameters. It is
// created once by a builder and never modified afterwards.
type Statement struct {
	sql    string
	params ParameterBag
	count  *Statement
}

func newStatement(sql string, params ParameterBag) Statement {
	return Statement{sql: sql, params: params}
}

func checkTarget(e *Entity, d Dialect) error {
	if e == nil {
		return &MetadataError{Entity: "<nil>", Err: ErrNotStruct}
	}
	if d == nil {
		return fmt.Errorf("%w for %s", ErrNoDialect, e.Name())
	}
	return nil
}

// SQL returns the statement's SQL text.
func (s Statement) SQL() string {
	return s.sql
}

// Params returns the statement's parameters.
func (s Statement) Params() ParameterBag {
	return s.params
}

// Count returns the statement counting all rows matched by a paged SELECT,
// disregarding paging and ordering. The second return value is false for
// statements that are not paged.
func (s Statement) Count() (Statement, bool) {
	if s.count == nil {
		return Statement{}, false
	}
	return *s.count, true
}

// String returns the statement's SQL text.
func (s Statement) String() string {
	return s.sql
}

// ToSQL returns the SQL text and the parameter values in emission order.
func (s Statement) ToSQL() (asSQL string, bindings []interface{}) {
	return s.sql, s.params.Values()
}

// Bind rewrites the statement's parameter markers into the bindvar style
// of a database driver (one of sqlx's bind types, see sqlx.BindType), and
// returns the rewritten SQL with the positional arguments. Markers are
// replaced in emission order, so arguments keep the order they were
// generated in. A parameter whose marker does not appear in the SQL text
// is not returned.
func (s Statement) Bind(bindType int) (asSQL string, bindings []interface{}) {
	var b strings.Builder
	rest := s.sql
	bindings = make([]interface{}, 0, len(s.params.params))
	for _, p := range s.params.params {
		i := indexMarker(rest, p.Name)
		if i < 0 {
			continue
		}
		b.WriteString(rest[:i])
		b.WriteString("?")
		rest = rest[i+len(p.Name):]
		bindings = append(bindings, p.Value)
	}
	b.WriteString(rest)

	return sqlx.Rebind(bindType, b.String()), bindings
}

// indexMarker finds marker in s, skipping occurrences that are the prefix
// of a longer name (e.g. "@P1" inside "@P10").
func indexMarker(s, marker string) int {
	offset := 0
	for {
		i := strings.Index(s[offset:], marker)
		if i < 0 {
			return -1
		}
		end := offset + i + len(marker)
		if end >= len(s) || !isIdentByte(s[end]) {
			return offset + i
		}
		offset = end
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
