package sqlgen

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

type nullValue struct{}

// Null is an explicit NULL value. Columns assigned Null are always written
// as NULL, regardless of whether null values are enabled on the builder.
var Null = nullValue{}

// Assignment assigns a value to a column, identified by field or physical
// name.
type Assignment struct {
	Column string
	Value  interface{}
}

// Assign creates an assignment of value to col.
func Assign(col string, value interface{}) Assignment {
	return Assignment{col, value}
}

// Assignments is an ordered list of column assignments. When used as a
// value source, columns are written in list order.
type Assignments []Assignment

// assignment is a resolved column assignment. null assignments render as a
// NULL literal and bind no parameter.
type assignment struct {
	col   Column
	value interface{}
	null  bool
}

// sourceField is a named value taken from a value source, before being
// matched against the entity's columns.
type sourceField struct {
	name  string
	value interface{}
}

// eligibility selects the columns a statement may write to.
type eligibility func(Column) bool

func insertable(col Column) bool { return col.Insert }
func updatable(col Column) bool  { return col.Update }

// extract resolves the assignments of one row. The source may be an entity
// instance (all eligible columns), a struct of another type whose fields
// name a subset of the columns, a map keyed by column name, or Assignments.
// Ineligible columns are dropped. nil values become NULL when nulls is set,
// and are dropped otherwise.
func (e *Entity) extract(src interface{}, row int, eligible eligibility, nulls bool) ([]assignment, error) {
	fields, err := e.sourceFields(src, row)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(fields))
	out := make([]assignment, 0, len(fields))
	for _, f := range fields {
		col, ok := e.Column(f.name)
		if !ok {
			return nil, &ShapeMismatchError{Row: row, Reason: fmt.Sprintf("%s has no column %q", e.Name(), f.name)}
		}
		if seen[col.Name] {
			return nil, &ShapeMismatchError{Row: row, Reason: fmt.Sprintf("column %q assigned more than once", col.Name)}
		}
		seen[col.Name] = true

		if !eligible(col) {
			continue
		}

		switch {
		case f.value == Null:
			out = append(out, assignment{col: col, null: true})
		case isNullValue(f.value):
			if nulls {
				out = append(out, assignment{col: col, null: true})
			}
		default:
			out = append(out, assignment{col: col, value: f.value})
		}
	}

	return out, nil
}

func (e *Entity) sourceFields(src interface{}, row int) ([]sourceField, error) {
	switch s := src.(type) {
	case nil:
		return nil, &ShapeMismatchError{Row: row, Reason: "nil value source"}
	case Assignments:
		return assignmentFields(s), nil
	case []Assignment:
		return assignmentFields(s), nil
	case Assignment:
		return assignmentFields([]Assignment{s}), nil
	}

	v := reflect.ValueOf(src)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, &ShapeMismatchError{Row: row, Reason: "nil value source"}
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if e.typ != nil && v.Type() == e.typ {
			return e.entityFields(v), nil
		}
		return structFields(v, nil), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, &ShapeMismatchError{Row: row, Reason: "map keys must be strings"}
		}
		return e.mapFields(v), nil
	default:
		return nil, &ShapeMismatchError{Row: row, Reason: fmt.Sprintf("unsupported value source %T", src)}
	}
}

func assignmentFields(list []Assignment) []sourceField {
	fields := make([]sourceField, len(list))
	for i, a := range list {
		fields[i] = sourceField{a.Column, a.Value}
	}
	return fields
}

// entityFields returns the value of every column of an entity instance, in
// declaration order. Columns inside nil embedded pointers are nil.
func (e *Entity) entityFields(v reflect.Value) []sourceField {
	fields := make([]sourceField, len(e.columns))
	for i, col := range e.columns {
		fields[i] = sourceField{name: col.Field}
		fv, err := v.FieldByIndexErr(col.index)
		if err == nil {
			fields[i].value = fv.Interface()
		}
	}
	return fields
}

// structFields returns the exported fields of a projection struct in
// declaration order, named like entity fields are (sql tag, db tag or field
// name). Untagged embedded structs are flattened.
func structFields(v reflect.Value, fields []sourceField) []sourceField {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, hasTag := field.Tag.Lookup("sql")
		if tag == "-" {
			continue
		}

		if field.Anonymous && !hasTag {
			fv := v.Field(i)
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				fields = structFields(fv, fields)
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		name, _ := parseColumnTag(tag)
		if name == "" {
			name, _, _ = strings.Cut(field.Tag.Get("db"), ",")
		}
		if name == "" || name == "-" {
			name = field.Name
		}

		fields = append(fields, sourceField{name: name, value: v.Field(i).Interface()})
	}
	return fields
}

// mapFields orders the entries of a map by the entity's declaration order.
// Keys that name no column are appended in sorted order so that they are
// reported deterministically.
func (e *Entity) mapFields(v reflect.Value) []sourceField {
	keys := make(map[int][]string, v.Len())
	var unknown []string
	for _, k := range v.MapKeys() {
		name := k.String()
		if i, ok := e.byName[name]; ok {
			keys[i] = append(keys[i], name)
		} else {
			unknown = append(unknown, name)
		}
	}

	fields := make([]sourceField, 0, v.Len())
	for i := range e.columns {
		names := keys[i]
		sort.Strings(names)
		for _, name := range names {
			fields = append(fields, sourceField{name, v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key())).Interface()})
		}
	}

	sort.Strings(unknown)
	for _, name := range unknown {
		fields = append(fields, sourceField{name, nil})
	}
	return fields
}

// isNullValue reports whether v is written as NULL: nil, Null, a nil
// pointer, interface, map, slice, channel or func, or a driver.Valuer
// returning nil.
func isNullValue(v interface{}) bool {
	if v == nil || v == Null {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return true
		}
	}

	if valuer, ok := v.(driver.Valuer); ok {
		val, err := valuer.Value()
		return err == nil && val == nil
	}

	return false
}

// bindValue prepares a value for binding: pointers are dereferenced unless
// they implement driver.Valuer, and Null becomes nil.
func bindValue(v interface{}) interface{} {
	if v == nil || v == Null {
		return nil
	}
	for {
		if _, ok := v.(driver.Valuer); ok {
			return v
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
}
