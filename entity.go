package sqlgen

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Tabler can be implemented by entity types to override the table name
// derived from the type name. TableName is called on the zero value, so it
// must not depend on field values. Schema-qualified names ("dbo.Users") are
// quoted part by part.
type Tabler interface {
	TableName() string
}

// Column describes one persistable field of an entity.
type Column struct {
	// Field is the logical (Go field) name
	Field string
	// Name is the physical column name
	Name string
	// Insert reports whether the column may appear in INSERT statements
	Insert bool
	// Update reports whether the column may appear in the SET list of
	// UPDATE statements
	Update bool
	// Key reports whether the column is part of the primary key
	Key bool

	index []int
}

// Entity is the resolved metadata of an entity type: its table and its
// columns in declaration order. Entities are immutable once resolved and
// safe for concurrent use.
type Entity struct {
	typ     reflect.Type
	name    string
	table   string
	columns []Column
	byName  map[string]int
}

// NewEntity creates an entity descriptor by hand, without reflection. Columns
// with an empty Name use their Field and vice versa. Entities created this
// way accept maps, Assignments and projection structs as value sources.
func NewEntity(table string, columns ...Column) (*Entity, error) {
	e := &Entity{name: table, table: table}
	for _, col := range columns {
		if col.Name == "" {
			col.Name = col.Field
		}
		if col.Field == "" {
			col.Field = col.Name
		}
		if col.Name == "" {
			return nil, &MetadataError{Entity: table, Err: fmt.Errorf("column without a name: %w", ErrNoColumns)}
		}
		col.index = nil
		e.columns = append(e.columns, col)
	}
	if len(e.columns) == 0 {
		return nil, &MetadataError{Entity: table, Err: ErrNoColumns}
	}
	e.buildIndex()
	return e, nil
}

// Name returns the entity's type name (or table name for entities created
// with NewEntity).
func (e *Entity) Name() string {
	return e.name
}

// Table returns the physical table name.
func (e *Entity) Table() string {
	return e.table
}

// Type returns the entity's Go type, or nil for entities created with
// NewEntity.
func (e *Entity) Type() reflect.Type {
	return e.typ
}

// Columns returns the entity's columns in declaration order.
func (e *Entity) Columns() []Column {
	return append([]Column(nil), e.columns...)
}

// Keys returns the primary key columns in declaration order.
func (e *Entity) Keys() []Column {
	var keys []Column
	for _, col := range e.columns {
		if col.Key {
			keys = append(keys, col)
		}
	}
	return keys
}

// Column looks up a column by field name, falling back to the physical
// column name.
func (e *Entity) Column(name string) (Column, bool) {
	i, ok := e.byName[name]
	if !ok {
		return Column{}, false
	}
	return e.columns[i], true
}

func (e *Entity) buildIndex() {
	e.byName = make(map[string]int, len(e.columns)*2)
	for i, col := range e.columns {
		if _, ok := e.byName[col.Name]; !ok {
			e.byName[col.Name] = i
		}
	}
	// field names win over physical names
	for i, col := range e.columns {
		e.byName[col.Field] = i
	}
}

// MapperOption configures a Mapper.
type MapperOption func(m *Mapper)

// WithTablePrefix prepends prefix to table names derived from type names.
// Names returned by TableName are used as they are.
func WithTablePrefix(prefix string) MapperOption {
	return func(m *Mapper) {
		m.prefix = prefix
	}
}

// WithNaming sets the naming strategy for tables and columns that do not
// declare their name explicitly.
func WithNaming(naming NamingStrategy) MapperOption {
	return func(m *Mapper) {
		m.naming = naming
	}
}

// WithStrictKeys disables the key naming fallback: only fields tagged with
// "key" become primary key columns.
func WithStrictKeys() MapperOption {
	return func(m *Mapper) {
		m.strictKeys = true
	}
}

// Mapper resolves entity types to Entity descriptors and caches the
// results for the lifetime of the Mapper.
//
// Fields are described with the "sql" struct tag:
//
//	type Class struct {
//		ID     int    `sql:"Class_Id,key,auto"`
//		CityId int    `sql:",noinsert"`
//		UserId int    `sql:",noupdate"`
//		Name   string
//		Cache  []byte `sql:"-"`
//	}
//
// The first tag element is the column name (the "db" tag or the naming
// strategy are used when it is empty). Options are "key", "auto"
// (generated by the database, never inserted or updated), "noinsert",
// "noupdate" and "update" (allow a key column in SET lists).
//
// Without any "key" tag, a field named Id/ID or <Type>Id/<Type>ID is used
// as the key. This fallback only exists for compatibility with entities that
// follow that convention; declare keys explicitly (and use WithStrictKeys)
// for anything else, composite keys in particular.
type Mapper struct {
	prefix     string
	naming     NamingStrategy
	strictKeys bool
	cache      sync.Map
}

// NewMapper creates a new Mapper.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{naming: IdentityNaming{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Naming returns the mapper's naming strategy.
func (m *Mapper) Naming() NamingStrategy {
	return m.naming
}

var defaultMapper = NewMapper()

// Describe resolves the entity metadata of T using the default mapper.
func Describe[T any]() (*Entity, error) {
	return defaultMapper.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

// MustDescribe is like Describe but panics on error. It is meant for
// package-level variables.
func MustDescribe[T any]() *Entity {
	e, err := Describe[T]()
	if err != nil {
		panic(err)
	}
	return e
}

// DescribeWith resolves the entity metadata of T using the provided mapper.
func DescribeWith[T any](m *Mapper) (*Entity, error) {
	return m.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

// Resolve returns the entity metadata of t (pointers are dereferenced).
// Resolution is pure: concurrent first calls for the same type may each
// compute a descriptor, but only one is ever stored and returned.
func (m *Mapper) Resolve(t reflect.Type) (*Entity, error) {
	if t == nil {
		return nil, &MetadataError{Entity: "<nil>", Err: ErrNotStruct}
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := m.cache.Load(t); ok {
		return cached.(*Entity), nil
	}

	e, err := m.describe(t)
	if err != nil {
		return nil, err
	}

	actual, _ := m.cache.LoadOrStore(t, e)
	return actual.(*Entity), nil
}

type fieldFlags struct {
	auto, noInsert, noUpdate, forceUpdate, key bool
}

func (m *Mapper) describe(t reflect.Type) (*Entity, error) {
	if t.Kind() != reflect.Struct {
		return nil, &MetadataError{Entity: t.String(), Err: ErrNotStruct}
	}

	e := &Entity{
		typ:   t,
		name:  t.Name(),
		table: m.tableName(t),
	}

	var flags []fieldFlags
	e.columns, flags = m.fields(t, nil, nil, nil)
	if len(e.columns) == 0 {
		return nil, &MetadataError{Entity: e.name, Err: ErrNoColumns}
	}

	hasKey := false
	for _, f := range flags {
		hasKey = hasKey || f.key
	}
	if !hasKey && !m.strictKeys {
		if i := conventionalKey(t.Name(), e.columns); i >= 0 {
			flags[i].key = true
		}
	}

	for i := range e.columns {
		f := flags[i]
		e.columns[i].Key = f.key
		e.columns[i].Insert = !f.auto && !f.noInsert
		e.columns[i].Update = !f.auto && !f.noUpdate && (!f.key || f.forceUpdate)
	}

	e.buildIndex()
	return e, nil
}

func (m *Mapper) tableName(t reflect.Type) string {
	if tabler, ok := reflect.New(t).Interface().(Tabler); ok {
		if name := tabler.TableName(); name != "" {
			return name
		}
	}
	return m.prefix + m.naming.Table(t.Name())
}

func (m *Mapper) fields(t reflect.Type, parent []int, cols []Column, flags []fieldFlags) ([]Column, []fieldFlags) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		tag, hasTag := field.Tag.Lookup("sql")
		if tag == "-" {
			continue
		}

		if field.Anonymous && !hasTag {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				cols, flags = m.fields(ft, index, cols, flags)
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		name, f := parseColumnTag(tag)
		if name == "" {
			dbName, _, _ := strings.Cut(field.Tag.Get("db"), ",")
			if dbName == "-" && !hasTag {
				continue
			}
			name = strings.TrimSpace(dbName)
		}
		if name == "" || name == "-" {
			name = m.naming.Column(field.Name)
		}

		cols = append(cols, Column{Field: field.Name, Name: name, index: index})
		flags = append(flags, f)
	}

	return cols, flags
}

func parseColumnTag(tag string) (name string, f fieldFlags) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "key", "pk":
			f.key = true
		case "auto", "identity":
			f.auto = true
		case "noinsert":
			f.noInsert = true
		case "noupdate":
			f.noUpdate = true
		case "update":
			f.forceUpdate = true
		}
	}
	return name, f
}

func conventionalKey(typeName string, cols []Column) int {
	candidates := []string{"Id", "ID", typeName + "Id", typeName + "ID"}
	for _, c := range candidates {
		for i, col := range cols {
			if col.Field == c {
				return i
			}
		}
	}
	return -1
}
