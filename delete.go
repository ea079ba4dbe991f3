package sqlgen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DeleteStmt represents a DELETE statement. DeleteStmt is a value: every
// method returns a modified copy and leaves the receiver untouched.
type DeleteStmt struct {
	entity     *Entity
	dialect    Dialect
	conditions []Condition
	keys       [][]interface{}
	byKeys     bool
	runner     runner
}

// DeleteFrom creates a new DeleteStmt for the entity, rendered for the
// provided dialect.
func DeleteFrom(e *Entity, d Dialect) DeleteStmt {
	return DeleteStmt{entity: e, dialect: d}
}

// DeleteFrom creates a new DeleteStmt for the entity, bound to the
// database.
func (db *DB) DeleteFrom(e *Entity) DeleteStmt {
	stmt := DeleteFrom(e, db.dialect)
	stmt.runner = db
	return stmt
}

// DeleteFrom creates a new DeleteStmt for the entity, bound to the
// transaction.
func (tx *Tx) DeleteFrom(e *Entity) DeleteStmt {
	stmt := DeleteFrom(e, tx.dialect)
	stmt.runner = tx
	return stmt
}

// Where creates one or more WHERE conditions for the DELETE statement.
// If multiple conditions are passed, they are considered AND conditions.
// Without conditions, every row of the table is deleted.
func (stmt DeleteStmt) Where(conds ...Condition) DeleteStmt {
	stmt.conditions = appendConditions(stmt.conditions, conds)
	return stmt
}

// WithKey deletes the row with the provided primary key. A single entity
// instance supplies its own key values; otherwise values are matched to
// the key columns in declaration order.
func (stmt DeleteStmt) WithKey(values ...interface{}) DeleteStmt {
	stmt.keys = [][]interface{}{append(make([]interface{}, 0, len(values)), values...)}
	stmt.byKeys = true
	return stmt
}

// WithKeys deletes the rows with the provided keys, one statement per key
// (see BuildAll). It requires a single-column primary key. A single slice
// argument is expanded into its elements.
func (stmt DeleteStmt) WithKeys(keys ...interface{}) DeleteStmt {
	keys = expandValues(keys)
	stmt.keys = make([][]interface{}, len(keys))
	for i, key := range keys {
		stmt.keys[i] = []interface{}{key}
	}
	stmt.byKeys = true
	return stmt
}

// Build generates the DELETE statement. Deleting several keys requires
// BuildAll.
func (stmt DeleteStmt) Build() (Statement, error) {
	if err := checkTarget(stmt.entity, stmt.dialect); err != nil {
		return Statement{}, err
	}

	if !stmt.byKeys {
		return stmt.build(nil, -1)
	}

	switch len(stmt.keys) {
	case 0:
		return Statement{}, &EmptyBatchError{Op: "delete from " + stmt.entity.Table()}
	case 1:
		return stmt.build(stmt.keys[0], -1)
	default:
		return Statement{}, &ShapeMismatchError{Row: -1, Reason: fmt.Sprintf("%d keys, use BuildAll", len(stmt.keys))}
	}
}

// BuildAll generates one DELETE statement per key set with WithKeys, or
// the single statement of any other delete.
func (stmt DeleteStmt) BuildAll() ([]Statement, error) {
	if !stmt.byKeys || len(stmt.keys) == 1 {
		built, err := stmt.Build()
		if err != nil {
			return nil, err
		}
		return []Statement{built}, nil
	}

	if err := checkTarget(stmt.entity, stmt.dialect); err != nil {
		return nil, err
	}
	if len(stmt.keys) == 0 {
		return nil, &EmptyBatchError{Op: "delete from " + stmt.entity.Table()}
	}
	if keys := stmt.entity.Keys(); len(keys) > 1 {
		return nil, &ShapeMismatchError{Row: -1, Reason: fmt.Sprintf(
			"%s has a composite key, delete rows one by one with WithKey", stmt.entity.Name(),
		)}
	}

	stmts := make([]Statement, len(stmt.keys))
	for i, key := range stmt.keys {
		built, err := stmt.build(key, i)
		if err != nil {
			return nil, err
		}
		stmts[i] = built
	}
	return stmts, nil
}

func (stmt DeleteStmt) build(key []interface{}, row int) (Statement, error) {
	e, d := stmt.entity, stmt.dialect

	conds := stmt.conditions
	if key != nil {
		keyConds, err := e.keyConditions(key, row)
		if err != nil {
			return Statement{}, err
		}
		conds = appendConditions(conds, keyConds)
	}

	params := newParamWriter(d, paramPrefix, 0)
	var clauses = []string{"DELETE FROM " + d.Quote(e.Table())}

	whereClause, err := newTranslator(d, e, params).where(conds)
	if err != nil {
		return Statement{}, err
	}
	if whereClause != "" {
		clauses = append(clauses, "WHERE "+whereClause)
	}

	return newStatement(strings.Join(clauses, " "), params.bag()), nil
}

// Exec executes the DELETE statement, returning the standard sql.Result
// struct and an error if the query failed. Deletes of several keys are
// executed in a single transaction.
func (stmt DeleteStmt) Exec(ctx context.Context) (res sql.Result, err error) {
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
