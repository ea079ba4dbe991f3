package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ido50/sqlgen"
	"gopkg.in/yaml.v3"
)

// script is a YAML file describing entities and the statements to generate
// for them.
type script struct {
	Dialect    string          `yaml:"dialect"`
	Entities   []entitySpec    `yaml:"entities"`
	Statements []statementSpec `yaml:"statements"`
}

type entitySpec struct {
	Name    string       `yaml:"name"`
	Table   string       `yaml:"table"`
	Columns []columnSpec `yaml:"columns"`
}

type columnSpec struct {
	Field    string `yaml:"field"`
	Column   string `yaml:"column"`
	Key      bool   `yaml:"key"`
	Auto     bool   `yaml:"auto"`
	NoInsert bool   `yaml:"noinsert"`
	NoUpdate bool   `yaml:"noupdate"`
}

type statementSpec struct {
	Name     string                   `yaml:"name"`
	Kind     string                   `yaml:"kind"`
	Entity   string                   `yaml:"entity"`
	Values   map[string]interface{}   `yaml:"values"`
	Rows     []map[string]interface{} `yaml:"rows"`
	Key      []interface{}            `yaml:"key"`
	Keys     []interface{}            `yaml:"keys"`
	Where    map[string]interface{}   `yaml:"where"`
	Columns  []string                 `yaml:"columns"`
	Order    []string                 `yaml:"order"`
	Page     *pageSpec                `yaml:"page"`
	Distinct bool                     `yaml:"distinct"`
	Nulls    *bool                    `yaml:"nulls"`
}

type pageSpec struct {
	Size  int `yaml:"size"`
	Index int `yaml:"index"`
}

func loadScript(path string) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed parsing %s: %w", path, err)
	}
	return &s, nil
}

func (s *script) entities() (map[string]*sqlgen.Entity, error) {
	entities := make(map[string]*sqlgen.Entity, len(s.Entities))
	for _, spec := range s.Entities {
		table := spec.Table
		if table == "" {
			table = spec.Name
		}

		cols := make([]sqlgen.Column, len(spec.Columns))
		for i, c := range spec.Columns {
			cols[i] = sqlgen.Column{
				Field:  c.Field,
				Name:   c.Column,
				Key:    c.Key,
				Insert: !c.Auto && !c.NoInsert,
				Update: !c.Auto && !c.NoUpdate && !c.Key,
			}
		}

		e, err := sqlgen.NewEntity(table, cols...)
		if err != nil {
			return nil, err
		}

		name := spec.Name
		if name == "" {
			name = table
		}
		entities[name] = e
	}
	return entities, nil
}

// generated is a statement built from a script.
type generated struct {
	name  string
	kind  string
	stmts []sqlgen.Statement
}

// build generates every statement of the script for the dialect.
func (s *script) build(d sqlgen.Dialect) ([]generated, error) {
	entities, err := s.entities()
	if err != nil {
		return nil, err
	}

	out := make([]generated, 0, len(s.Statements))
	for i, spec := range s.Statements {
		e, ok := entities[spec.Entity]
		if !ok {
			return nil, fmt.Errorf("statement %d: unknown entity %q", i+1, spec.Entity)
		}

		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s %s", spec.Kind, spec.Entity)
		}

		stmts, err := spec.build(e, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, generated{name: name, kind: strings.ToLower(spec.Kind), stmts: stmts})
	}
	return out, nil
}

func (spec statementSpec) build(e *sqlgen.Entity, d sqlgen.Dialect) ([]sqlgen.Statement, error) {
	nulls := spec.Nulls == nil || *spec.Nulls

	switch strings.ToLower(spec.Kind) {
	case "insert":
		stmt := sqlgen.InsertInto(e, d).NullValues(nulls)
		if len(spec.Rows) > 0 {
			stmt = stmt.Rows(spec.Rows)
		} else {
			stmt = stmt.Values(spec.Values)
		}
		return one(stmt.Build())

	case "update":
		stmt := sqlgen.Update(e, d).NullValues(nulls).Where(spec.conditions()...)
		if len(spec.Rows) > 0 {
			return stmt.Rows(spec.Rows).BuildAll()
		}
		stmt = stmt.Set(spec.Values)
		if spec.Key != nil {
			stmt = stmt.WithKey(spec.Key...)
		}
		return one(stmt.Build())

	case "delete":
		stmt := sqlgen.DeleteFrom(e, d).Where(spec.conditions()...)
		if spec.Keys != nil {
			return stmt.WithKeys(spec.Keys...).BuildAll()
		}
		if spec.Key != nil {
			stmt = stmt.WithKey(spec.Key...)
		}
		return one(stmt.Build())

	case "select":
		stmt := sqlgen.Select(e, d).Columns(spec.Columns...).Where(spec.conditions()...)
		if spec.Key != nil {
			stmt = stmt.WithKey(spec.Key...)
		}
		if spec.Distinct {
			stmt = stmt.Distinct()
		}
		for _, order := range spec.Order {
			if strings.HasPrefix(order, "-") {
				stmt = stmt.OrderBy(sqlgen.Desc(order[1:]))
			} else {
				stmt = stmt.OrderBy(sqlgen.Asc(strings.TrimPrefix(order, "+")))
			}
		}
		if spec.Page != nil {
			stmt = stmt.Page(spec.Page.Size, spec.Page.Index)
		}
		return one(stmt.Build())

	default:
		return nil, fmt.Errorf("unknown statement kind %q", spec.Kind)
	}
}

// conditions turns the where map into equality conditions, sorted by
// column name. Null values check for NULL.
func (spec statementSpec) conditions() []sqlgen.Condition {
	cols := make([]string, 0, len(spec.Where))
	for col := range spec.Where {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]sqlgen.Condition, len(cols))
	for i, col := range cols {
		if spec.Where[col] == nil {
			conds[i] = sqlgen.IsNull(col)
		} else {
			conds[i] = sqlgen.Eq(col, spec.Where[col])
		}
	}
	return conds
}

func one(stmt sqlgen.Statement, err error) ([]sqlgen.Statement, error) {
	if err != nil {
		return nil, err
	}
	return []sqlgen.Statement{stmt}, nil
}
