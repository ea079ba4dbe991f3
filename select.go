package sqlgen

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// OrderColumn represents a column in an ORDER BY clause (with direction)
type OrderColumn struct {
	Column string
	Desc   bool
}

// Asc creates an OrderColumn for the provided column in ascending order
func Asc(col string) OrderColumn {
	return OrderColumn{col, false}
}

// Desc creates an OrderColumn for the provided column in descending order
func Desc(col string) OrderColumn {
	return OrderColumn{col, true}
}

// SelectStmt represents a SELECT statement. SelectStmt is a value: every
// method returns a modified copy and leaves the receiver untouched.
type SelectStmt struct {
	entity     *Entity
	dialect    Dialect
	isDistinct bool
	columns    []string
	conditions []Condition
	key        []interface{}
	ordering   []OrderColumn
	paged      bool
	pageSize   int
	pageIndex  int
	runner     runner
}

// Select creates a new SelectStmt for the entity, rendered for the
// provided dialect. All columns are selected unless Columns is used.
func Select(e *Entity, d Dialect) SelectStmt {
	return SelectStmt{entity: e, dialect: d}
}

// Select creates a new SelectStmt for the entity, bound to the database.
func (db *DB) Select(e *Entity) SelectStmt {
	stmt := Select(e, db.dialect)
	stmt.runner = db
	return stmt
}

// Select creates a new SelectStmt for the entity, bound to the
// transaction.
func (tx *Tx) Select(e *Entity) SelectStmt {
	stmt := Select(e, tx.dialect)
	stmt.runner = tx
	return stmt
}

// Distinct marks the statements as a SELECT DISTINCT statement
func (stmt SelectStmt) Distinct() SelectStmt {
	stmt.isDistinct = true
	return stmt
}

// Columns restricts the selected columns, named by field or physical name.
func (stmt SelectStmt) Columns(cols ...string) SelectStmt {
	stmt.columns = append(append([]string(nil), stmt.columns...), cols...)
	return stmt
}

// Where creates one or more WHERE conditions for the SELECT statement.
// If multiple conditions are passed, they are considered AND conditions.
func (stmt SelectStmt) Where(conds ...Condition) SelectStmt {
	stmt.conditions = appendConditions(stmt.conditions, conds)
	return stmt
}

// WithKey selects the row with the provided primary key. A single entity
// instance supplies its own key values; otherwise values are matched to
// the key columns in declaration order.
func (stmt SelectStmt) WithKey(values ...interface{}) SelectStmt {
	stmt.key = append(make([]interface{}, 0, len(values)), values...)
	return stmt
}

// OrderBy sets an ORDER BY clause for the query. Pass OrderColumn objects
// using the Asc and Desc functions.
func (stmt SelectStmt) OrderBy(cols ...OrderColumn) SelectStmt {
	stmt.ordering = append(append([]OrderColumn(nil), stmt.ordering...), cols...)
	return stmt
}

// Page selects one page of the results. pageIndex is 1-based, smaller
// values select the first page. The built statement carries a Count
// statement for the total number of matching rows.
func (stmt SelectStmt) Page(pageSize, pageIndex int) SelectStmt {
	stmt.paged = true
	stmt.pageSize = pageSize
	stmt.pageIndex = pageIndex
	return stmt
}

// Build generates the SELECT statement.
func (stmt SelectStmt) Build() (Statement, error) {
	if err := checkTarget(stmt.entity, stmt.dialect); err != nil {
		return Statement{}, err
	}
	if stmt.paged && stmt.pageSize <= 0 {
		return Statement{}, fmt.Errorf("%w: %d", ErrInvalidPage, stmt.pageSize)
	}
	if stmt.paged && max(stmt.pageIndex, 1)-1 > (math.MaxInt-stmt.pageSize)/stmt.pageSize {
		return Statement{}, fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidPage, stmt.pageIndex, stmt.pageSize)
	}

	e, d := stmt.entity, stmt.dialect

	columns, err := stmt.projection()
	if err != nil {
		return Statement{}, err
	}

	conds := stmt.conditions
	if stmt.key != nil {
		keyConds, err := e.keyConditions(stmt.key, -1)
		if err != nil {
			return Statement{}, err
		}
		conds = appendConditions(conds, keyConds)
	}

	params := newParamWriter(d, paramPrefix, 0)
	whereClause, err := newTranslator(d, e, params).where(conds)
	if err != nil {
		return Statement{}, err
	}

	var clauses = []string{"SELECT"}
	if stmt.isDistinct {
		clauses = append(clauses, "DISTINCT")
	}
	clauses = append(clauses, strings.Join(columns, ","), "FROM "+d.Quote(e.Table()))
	if whereClause != "" {
		clauses = append(clauses, "WHERE "+whereClause)
	}
	query := strings.Join(clauses, " ")

	var ordering []string
	for _, order := range stmt.ordering {
		col, ok := e.Column(order.Column)
		if !ok {
			return Statement{}, &ShapeMismatchError{Row: -1, Reason: fmt.Sprintf("cannot order by unknown column %q", order.Column)}
		}
		dir := " ASC"
		if order.Desc {
			dir = " DESC"
		}
		ordering = append(ordering, d.Quote(col.Name)+dir)
	}
	orderBy := strings.Join(ordering, ",")

	if !stmt.paged {
		if orderBy != "" {
			query += " ORDER BY " + orderBy
		}
		return newStatement(query, params.bag()), nil
	}

	countSQL := "SELECT COUNT(*) FROM " + d.Quote(e.Table())
	if stmt.isDistinct {
		countSQL = "SELECT COUNT(*) FROM (" + query + ") T"
	} else if whereClause != "" {
		countSQL += " WHERE " + whereClause
	}
	count := newStatement(countSQL, params.bag())

	paged := newStatement(d.Page(query, orderBy, stmt.pageSize, stmt.pageIndex), params.bag())
	paged.count = &count
	return paged, nil
}

// projection renders the selected columns. Columns whose physical name
// differs from the field name are aliased to the field name, so that rows
// scan into the entity's fields.
func (stmt SelectStmt) projection() ([]string, error) {
	e, d := stmt.entity, stmt.dialect

	cols := e.columns
	if len(stmt.columns) > 0 {
		cols = make([]Column, len(stmt.columns))
		for i, name := range stmt.columns {
			col, ok := e.Column(name)
			if !ok {
				return nil, &ShapeMismatchError{Row: -1, Reason: fmt.Sprintf("cannot select unknown column %q", name)}
			}
			cols[i] = col
		}
	}

	rendered := make([]string, len(cols))
	for i, col := range cols {
		rendered[i] = d.Quote(col.Name)
		if col.Field != col.Name {
			rendered[i] += " AS " + d.Quote(col.Field)
		}
	}
	return rendered, nil
}

// GetRow executes the SELECT statement and loads the first result into the
// provided variable (which may be a simple variable if only one column was
// selected, or a struct if multiple columns were selected). It returns an
// error matching ErrNotFound if no row matched.
func (stmt SelectStmt) GetRow(ctx context.Context, into interface{}) error {
	if stmt.runner == nil {
		return ErrNoDB
	}
	built, err := stmt.Build()
	if err != nil {
		return err
	}
	return stmt.runner.GetRow(ctx, into, built)
}

// GetAll executes the SELECT statement and loads all the results into the
// provided slice variable. For paged statements, only the selected page
// is loaded.
func (stmt SelectStmt) GetAll(ctx context.Context, into interface{}) error {
	if stmt.runner == nil {
		return ErrNoDB
	}
	built, err := stmt.Build()
	if err != nil {
		return err
	}
	return stmt.runner.GetAll(ctx, into, built)
}

// GetPage executes a paged SELECT statement, loading the selected page into
// the provided slice variable and returning the total number of matching
// rows.
func (stmt SelectStmt) GetPage(ctx context.Context, into interface{}) (total int64, err error) {
	if stmt.runner == nil {
		return 0, ErrNoDB
	}
	built, err := stmt.Build()
	if err != nil {
		return 0, err
	}
	return stmt.runner.GetPage(ctx, into, built)
}

// GetCount executes the SELECT statement disregarding paging, selected
// columns and ordering; and returns the total number of matching results.
func (stmt SelectStmt) GetCount(ctx context.Context) (count int64, err error) {
	if stmt.runner == nil {
		return 0, ErrNoDB
	}
	countStmt := stmt
	countStmt.isDistinct = false
	countStmt.columns = nil
	countStmt.ordering = nil
	countStmt = countStmt.Page(1, 1)

	built, err := countStmt.Build()
	if err != nil {
		return 0, err
	}
	counter, _ := built.Count()
	err = stmt.runner.GetRow(ctx, &count, counter)
	return count, err
}
