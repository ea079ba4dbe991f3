package sqlgen

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// InsertStmt represents an INSERT statement. InsertStmt is a value: every
// method returns a modified copy and leaves the receiver untouched.
type InsertStmt struct {
	entity     *Entity
	dialect    Dialect
	rows       []interface{}
	batch      bool
	nullValues bool
	runner     runner
}

// InsertInto creates a new InsertStmt for the entity, rendered for the
// provided dialect. Null values are enabled.
func InsertInto(e *Entity, d Dialect) InsertStmt {
	return InsertStmt{
		entity:     e,
		dialect:    d,
		nullValues: true,
	}
}

// InsertInto creates a new InsertStmt for the entity, bound to the
// database.
func (db *DB) InsertInto(e *Entity) InsertStmt {
	stmt := InsertInto(e, db.dialect)
	stmt.runner = db
	return stmt
}

// InsertInto creates a new InsertStmt for the entity, bound to the
// transaction.
func (tx *Tx) InsertInto(e *Entity) InsertStmt {
	stmt := InsertInto(e, tx.dialect)
	stmt.runner = tx
	return stmt
}

// Values sets the single row to insert. src is an entity instance, a
// struct whose fields name a subset of the entity's columns, a map of
// column names to values, or Assignments.
func (stmt InsertStmt) Values(src interface{}) InsertStmt {
	stmt.rows = []interface{}{src}
	stmt.batch = false
	return stmt
}

// Rows sets the rows of a batch insert. Every row accepts the same sources
// as Values, and a single slice argument is expanded into its elements.
// All rows must produce the same columns as the first one.
func (stmt InsertStmt) Rows(srcs ...interface{}) InsertStmt {
	stmt.rows = expandRows(srcs)
	stmt.batch = true
	return stmt
}

// NullValues sets whether nil values are inserted as NULL (the default) or
// left out of the column list.
func (stmt InsertStmt) NullValues(enabled bool) InsertStmt {
	stmt.nullValues = enabled
	return stmt
}

// Build generates the INSERT statement.
func (stmt InsertStmt) Build() (Statement, error) {
	if err := checkTarget(stmt.entity, stmt.dialect); err != nil {
		return Statement{}, err
	}

	if len(stmt.rows) == 0 {
		if stmt.batch {
			return Statement{}, &EmptyBatchError{Op: "insert into " + stmt.entity.Table()}
		}
		return Statement{}, &ShapeMismatchError{Row: -1, Reason: "no values to insert"}
	}

	rows, err := stmt.extractRows()
	if err != nil {
		return Statement{}, err
	}

	d := stmt.dialect
	columns := make([]string, len(rows[0]))
	for i, a := range rows[0] {
		columns[i] = d.Quote(a.col.Name)
	}

	params := newParamWriter(d, insertParamPrefix, 0)
	values := make([][]string, len(rows))
	for i, row := range rows {
		values[i] = make([]string, len(row))
		for j, a := range row {
			if a.null {
				values[i][j] = "NULL"
			} else {
				values[i][j] = params.add(a.value)
			}
		}
	}

	table := d.Quote(stmt.entity.Table())
	var asSQL string
	if stmt.batch {
		asSQL = d.BatchInsert(table, columns, values)
	} else {
		asSQL = valuesInsert(table, columns, values)
	}

	return newStatement(asSQL, params.bag()), nil
}

// extractRows resolves the assignments of every row, reordered to the
// column order of the first row.
func (stmt InsertStmt) extractRows() ([][]assignment, error) {
	row := func(i int) int {
		if stmt.batch {
			return i
		}
		return -1
	}

	rows := make([][]assignment, len(stmt.rows))
	var shape map[string]int
	for i, src := range stmt.rows {
		assignments, err := stmt.entity.extract(src, row(i), insertable, stmt.nullValues)
		if err != nil {
			return nil, err
		}
		if len(assignments) == 0 {
			return nil, &ShapeMismatchError{Row: row(i), Reason: "no insertable columns"}
		}

		if i == 0 {
			shape = make(map[string]int, len(assignments))
			for j, a := range assignments {
				shape[a.col.Name] = j
			}
			rows[0] = assignments
			continue
		}

		if len(assignments) != len(shape) {
			return nil, &ShapeMismatchError{Row: i, Reason: fmt.Sprintf(
				"%d columns, expected %d (%s)",
				len(assignments), len(shape), columnList(rows[0]),
			)}
		}
		ordered := make([]assignment, len(assignments))
		for _, a := range assignments {
			j, ok := shape[a.col.Name]
			if !ok {
				return nil, &ShapeMismatchError{Row: i, Reason: fmt.Sprintf(
					"unexpected column %q, expected %s", a.col.Name, columnList(rows[0]),
				)}
			}
			ordered[j] = a
		}
		rows[i] = ordered
	}

	return rows, nil
}

// Exec executes the INSERT statement, returning the standard sql.Result
// struct and an error if the query failed.
func (stmt InsertStmt) Exec(ctx context.Context) (res sql.Result, err error) {
	if stmt.runner == nil {
		return nil, ErrNoDB
	}
	built, err := stmt.Build()
	if err != nil {
		return nil, err
	}
	return stmt.runner.Exec(ctx, built)
}

func columnList(row []assignment) string {
	names := make([]string, len(row))
	for i, a := range row {
		names[i] = a.col.Name
	}
	return strings.Join(names, ",")
}

// expandRows turns a single slice argument (other than Assignments) into
// one row per element.
func expandRows(srcs []interface{}) []interface{} {
	if len(srcs) != 1 || srcs[0] == nil {
		return append([]interface{}(nil), srcs...)
	}
	switch srcs[0].(type) {
	case Assignments, []Assignment:
		return []interface{}{srcs[0]}
	}
	v := reflect.ValueOf(srcs[0])
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []interface{}{srcs[0]}
	}
	rows := make([]interface{}, v.Len())
	for i := range rows {
		rows[i] = v.Index(i).Interface()
	}
	return rows
}
