package sqlgen

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// UpdateStmt represents an UPDATE statement. UpdateStmt is a value: every
// method returns a modified copy and leaves the receiver untouched.
type UpdateStmt struct {
	entity     *Entity
	dialect    Dialect
	values     interface{}
	rows       []interface{}
	batch      bool
	nullValues bool
	conditions []Condition
	key        []interface{}
	runner     runner
}

// Update creates a new UpdateStmt for the entity, rendered for the provided
// dialect. Null values are enabled.
func Update(e *Entity, d Dialect) UpdateStmt {
	return UpdateStmt{
		entity:     e,
		dialect:    d,
		nullValues: true,
	}
}

// Update creates a new UpdateStmt for the entity, bound to the database.
func (db *DB) Update(e *Entity) UpdateStmt {
	stmt := Update(e, db.dialect)
	stmt.runner = db
	return stmt
}

// Update creates a new UpdateStmt for the entity, bound to the transaction.
func (tx *Tx) Update(e *Entity) UpdateStmt {
	stmt := Update(e, tx.dialect)
	stmt.runner = tx
	return stmt
}

// Set sets the values to update. src is an entity instance (every updatable
// column), a struct whose fields name a subset of the entity's columns (a
// partial update), a map of column names to values, or Assignments. Key
// columns and columns marked noupdate are never written.
func (stmt UpdateStmt) Set(src interface{}) UpdateStmt {
	stmt.values = src
	stmt.rows = nil
	stmt.batch = false
	return stmt
}

// NullValues sets whether nil values are written as NULL (the default) or
// left out of the SET list.
func (stmt UpdateStmt) NullValues(enabled bool) UpdateStmt {
	stmt.nullValues = enabled
	return stmt
}

// Where creates one or more WHERE conditions for the UPDATE statement.
// If multiple conditions are passed, they are considered AND conditions.
// Without conditions, every row of the table is updated.
func (stmt UpdateStmt) Where(conds ...Condition) UpdateStmt {
	stmt.conditions = appendConditions(stmt.conditions, conds)
	return stmt
}

// WithKey restricts the update to the row with the provided primary key.
// A single entity instance supplies its own key values; otherwise values
// are matched to the key columns in declaration order.
func (stmt UpdateStmt) WithKey(values ...interface{}) UpdateStmt {
	stmt.key = append(make([]interface{}, 0, len(values)), values...)
	return stmt
}

// Rows creates a batch update by key: BuildAll generates one UPDATE per
// entity instance, writing its updatable columns to the row with its key.
// A single slice argument is expanded into its elements.
func (stmt UpdateStmt) Rows(entities ...interface{}) UpdateStmt {
	stmt.rows = expandRows(entities)
	stmt.values = nil
	stmt.batch = true
	return stmt
}

// Build generates the UPDATE statement. Batch updates with more than one
// row must use BuildAll.
func (stmt UpdateStmt) Build() (Statement, error) {
	if err := checkTarget(stmt.entity, stmt.dialect); err != nil {
		return Statement{}, err
	}

	if stmt.batch {
		switch len(stmt.rows) {
		case 0:
			return Statement{}, &EmptyBatchError{Op: "update " + stmt.entity.Table()}
		case 1:
			return stmt.row(stmt.rows[0]).build(-1)
		default:
			return Statement{}, &ShapeMismatchError{Row: -1, Reason: fmt.Sprintf("%d rows, use BuildAll", len(stmt.rows))}
		}
	}

	return stmt.build(-1)
}

// BuildAll generates one UPDATE statement per row of a batch update, or
// the single statement of a regular update.
func (stmt UpdateStmt) BuildAll() ([]Statement, error) {
	if !stmt.batch {
		built, err := stmt.Build()
		if err != nil {
			return nil, err
		}
		return []Statement{built}, nil
	}

	if err := checkTarget(stmt.entity, stmt.dialect); err != nil {
		return nil, err
	}
	if len(stmt.rows) == 0 {
		return nil, &EmptyBatchError{Op: "update " + stmt.entity.Table()}
	}

	stmts := make([]Statement, len(stmt.rows))
	for i, src := range stmt.rows {
		built, err := stmt.row(src).build(i)
		if err != nil {
			return nil, err
		}
		stmts[i] = built
	}
	return stmts, nil
}

// row turns one row of a batch update into a single update by key.
func (stmt UpdateStmt) row(src interface{}) UpdateStmt {
	stmt.values = src
	stmt.key = []interface{}{src}
	stmt.rows = nil
	stmt.batch = false
	return stmt
}

func (stmt UpdateStmt) build(row int) (Statement, error) {
	e, d := stmt.entity, stmt.dialect

	if stmt.values == nil {
		return Statement{}, &ShapeMismatchError{Row: row, Reason: "no values to update"}
	}

	assignments, err := e.extract(stmt.values, row, updatable, stmt.nullValues)
	if err != nil {
		return Statement{}, err
	}
	if len(assignments) == 0 {
		return Statement{}, &ShapeMismatchError{Row: row, Reason: "no updatable columns"}
	}

	conds := stmt.conditions
	if stmt.key != nil {
		keyConds, err := e.keyConditions(stmt.key, row)
		if err != nil {
			return Statement{}, err
		}
		conds = appendConditions(conds, keyConds)
	}

	params := newParamWriter(d, paramPrefix, 0)
	updates := make([]string, len(assignments))
	for i, a := range assignments {
		value := "NULL"
		if !a.null {
			value = params.add(a.value)
		}
		updates[i] = d.Quote(a.col.Name) + " = " + value
	}

	var clauses = []string{"UPDATE " + d.Quote(e.Table()), "SET " + strings.Join(updates, ",")}

	whereClause, err := newTranslator(d, e, params).where(conds)
	if err != nil {
		return Statement{}, err
	}
	if whereClause != "" {
		clauses = append(clauses, "WHERE "+whereClause)
	}

	return newStatement(strings.Join(clauses, " "), params.bag()), nil
}

// Exec executes the UPDATE statement, returning the standard sql.Result
// struct and an error if the query failed. Batch updates are executed in
// a single transaction; the result then reports the total number of
// affected rows.
func (stmt UpdateStmt) Exec(ctx context.Context) (res sql.Result, err error) {
	if stmt.runner == nil {
		return nil, ErrNoDB
	}
	stmts, err := stmt.BuildAll()
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmt.runner.Exec(ctx, stmts[0])
	}
	affected, err := stmt.runner.ExecAll(ctx, stmts)
	if err != nil {
		return nil, err
	}
	return batchResult(affected), nil
}

// keyConditions creates equality conditions on the entity's primary key.
// A single instance of the entity type supplies its own key values.
func (e *Entity) keyConditions(values []interface{}, row int) ([]Condition, error) {
	keys := e.Keys()
	if len(keys) == 0 {
		return nil, noKeyError(e)
	}

	if len(values) == 1 {
		if kv, ok, err := e.keyValues(values[0], keys, row); err != nil {
			return nil, err
		} else if ok {
			values = kv
		}
	}

	if len(values) != len(keys) {
		return nil, &ShapeMismatchError{Row: row, Reason: fmt.Sprintf(
			"%d key values for %d key columns of %s", len(values), len(keys), e.Name(),
		)}
	}

	conds := make([]Condition, len(keys))
	for i, key := range keys {
		conds[i] = Eq(key.Field, values[i])
	}
	return conds, nil
}

// keyValues takes the key values out of an entity instance, a map or
// Assignments. It returns false for any other value, which is then a key
// value itself.
func (e *Entity) keyValues(src interface{}, keys []Column, row int) ([]interface{}, bool, error) {
	switch src.(type) {
	case Assignments, []Assignment:
	default:
		v := reflect.ValueOf(src)
		for v.Kind() == reflect.Ptr && !v.IsNil() {
			v = v.Elem()
		}
		if !v.IsValid() {
			return nil, false, nil
		}
		if e.typ != nil && v.Type() == e.typ {
			values := make([]interface{}, len(keys))
			for i, key := range keys {
				fv, err := v.FieldByIndexErr(key.index)
				if err != nil {
					return nil, false, &ShapeMismatchError{Row: row, Reason: fmt.Sprintf("key %s: %s", key.Field, err)}
				}
				values[i] = fv.Interface()
			}
			return values, true, nil
		}
		if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
	}

	fields, err := e.sourceFields(src, row)
	if err != nil {
		return nil, false, err
	}
	values := make([]interface{}, len(keys))
	for i, key := range keys {
		found := false
		for _, f := range fields {
			if col, ok := e.Column(f.name); ok && col.Name == key.Name {
				values[i], found = f.value, true
				break
			}
		}
		if !found {
			return nil, false, &ShapeMismatchError{Row: row, Reason: fmt.Sprintf("no value for key %s", key.Field)}
		}
	}
	return values, true, nil
}

func appendConditions(conds []Condition, more []Condition) []Condition {
	out := make([]Condition, 0, len(conds)+len(more))
	out = append(out, conds...)
	return append(out, more...)
}

// batchResult is the sql.Result of a batch executed as several statements.
type batchResult int64

func (r batchResult) LastInsertId() (int64, error) {
	return 0, fmt.Errorf("sqlgen: LastInsertId is not available for batches")
}

func (r batchResult) RowsAffected() (int64, error) {
	return int64(r), nil
}
