package sqlgen

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
)

// Condition is a node of a predicate tree. Conditions are built with the
// constructors of this package (Eq, And, In, Like, IsNull, SQLCond, ...) and
// translated to SQL by the statement builders or by Translate.
type Condition interface {
	render(t *translator, root bool) (string, error)
}

// Fragment is a translated SQL fragment and the parameters it binds.
type Fragment struct {
	SQL    string
	Params ParameterBag
}

// Translate renders cond as a SQL boolean expression for the entity's
// columns. Parameters are numbered from offset+1, so fragments can be
// appended to statements that already bind offset parameters. A compound
// condition at the root is rendered without its outer parentheses.
func Translate(d Dialect, e *Entity, cond Condition, offset int) (Fragment, error) {
	if err := checkTarget(e, d); err != nil {
		return Fragment{}, err
	}
	if cond == nil {
		return Fragment{}, &UnsupportedPredicateError{Node: "<nil>", Dialect: d.Name(), Reason: "nil condition"}
	}
	t := newTranslator(d, e, newParamWriter(d, paramPrefix, offset))
	asSQL, err := cond.render(t, true)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: asSQL, Params: t.params.bag()}, nil
}

type translator struct {
	dialect Dialect
	entity  *Entity
	params  *paramWriter
}

func newTranslator(d Dialect, e *Entity, params *paramWriter) *translator {
	return &translator{dialect: d, entity: e, params: params}
}

func (t *translator) column(node, name string) (string, error) {
	col, ok := t.entity.Column(name)
	if !ok {
		return "", t.unsupported(node, fmt.Sprintf("unknown column %q of %s", name, t.entity.Name()))
	}
	return t.dialect.Quote(col.Name), nil
}

func (t *translator) unsupported(node, reason string) error {
	return &UnsupportedPredicateError{Node: node, Dialect: t.dialect.Name(), Reason: reason}
}

// where renders the conditions of a WHERE clause, joined with AND.
func (t *translator) where(conds []Condition) (string, error) {
	switch len(conds) {
	case 0:
		return "", nil
	case 1:
		if conds[0] == nil {
			return "", t.unsupported("<nil>", "nil condition")
		}
		return conds[0].render(t, true)
	default:
		return And(conds...).render(t, true)
	}
}

// ColumnRef references a column of the entity, to be used as the value of a
// comparison instead of a bound parameter.
type ColumnRef struct {
	Name string
}

// Col creates a reference to a column, e.g. Gt("UpdatedAt", Col("CreatedAt")).
func Col(name string) ColumnRef {
	return ColumnRef{name}
}

// CompareCondition compares a column with a value using a binary operator
// ("=", "<>", "<", "<=", ">", ">=").
type CompareCondition struct {
	Column   string
	Operator string
	Value    interface{}
}

// Eq represents a simple equality condition ("=" operator)
func Eq(col string, value interface{}) CompareCondition {
	return CompareCondition{col, "=", value}
}

// Ne represents a simple non-equality condition ("<>" operator)
func Ne(col string, value interface{}) CompareCondition {
	return CompareCondition{col, "<>", value}
}

// Gt represents a simple greater-than condition (">" operator)
func Gt(col string, value interface{}) CompareCondition {
	return CompareCondition{col, ">", value}
}

// Gte represents a simple greater-than-or-equals condition (">=" operator)
func Gte(col string, value interface{}) CompareCondition {
	return CompareCondition{col, ">=", value}
}

// Lt represents a simple less-than condition ("<" operator)
func Lt(col string, value interface{}) CompareCondition {
	return CompareCondition{col, "<", value}
}

// Lte represents a simple less-than-or-equals condition ("<=" operator)
func Lte(col string, value interface{}) CompareCondition {
	return CompareCondition{col, "<=", value}
}

func (cmp CompareCondition) render(t *translator, _ bool) (string, error) {
	node := cmp.Operator + " on " + cmp.Column
	switch cmp.Operator {
	case "=", "<>", "<", "<=", ">", ">=":
	default:
		return "", t.unsupported(node, "unknown comparison operator")
	}

	left, err := t.column(node, cmp.Column)
	if err != nil {
		return "", err
	}

	if ref, ok := cmp.Value.(ColumnRef); ok {
		right, err := t.column(node, ref.Name)
		if err != nil {
			return "", err
		}
		return left + " " + cmp.Operator + " " + right, nil
	}

	if isNullValue(cmp.Value) {
		return "", t.unsupported(node, "comparison with NULL, use IsNull or IsNotNull")
	}

	return left + " " + cmp.Operator + " " + t.params.add(cmp.Value), nil
}

// AndOrCondition represents a group of AND or OR conditions.
type AndOrCondition struct {
	Or         bool
	Conditions []Condition
}

// And joins multiple conditions with AND. Passing several conditions to
// Where has the same effect.
func And(conds ...Condition) AndOrCondition {
	return AndOrCondition{false, conds}
}

// Or joins multiple conditions with OR.
func Or(conds ...Condition) AndOrCondition {
	return AndOrCondition{true, conds}
}

func (andOr AndOrCondition) render(t *translator, root bool) (string, error) {
	op := " AND "
	if andOr.Or {
		op = " OR "
	}

	switch len(andOr.Conditions) {
	case 0:
		return "", t.unsupported(strings.TrimSpace(op), "no conditions")
	case 1:
		if andOr.Conditions[0] == nil {
			return "", t.unsupported(strings.TrimSpace(op), "nil condition")
		}
		return andOr.Conditions[0].render(t, root)
	}

	sqls := make([]string, 0, len(andOr.Conditions))
	for _, cond := range andOr.Conditions {
		if cond == nil {
			return "", t.unsupported(strings.TrimSpace(op), "nil condition")
		}
		inner, err := cond.render(t, false)
		if err != nil {
			return "", err
		}
		sqls = append(sqls, inner)
	}

	if root {
		return strings.Join(sqls, op), nil
	}
	return "(" + strings.Join(sqls, op) + ")", nil
}

// NotCondition negates a condition.
type NotCondition struct {
	Condition Condition
}

// Not negates a condition ("NOT (...)").
func Not(cond Condition) NotCondition {
	return NotCondition{cond}
}

func (not NotCondition) render(t *translator, _ bool) (string, error) {
	if not.Condition == nil {
		return "", t.unsupported("NOT", "nil condition")
	}
	inner, err := not.Condition.render(t, true)
	if err != nil {
		return "", err
	}
	return "NOT (" + inner + ")", nil
}

// InCondition is a struct representing IN and NOT IN conditions
type InCondition struct {
	NotIn  bool
	Column string
	Values []interface{}
}

// In creates an IN condition for matching the value of a column against a
// list of possible values. A single slice argument is expanded into its
// elements. An empty list matches no rows.
func In(col string, values ...interface{}) InCondition {
	return InCondition{false, col, expandValues(values)}
}

// NotIn creates a NOT IN condition for checking that the value of a column
// is not one of the listed values. An empty list matches all rows.
func NotIn(col string, values ...interface{}) InCondition {
	return InCondition{true, col, expandValues(values)}
}

func (in InCondition) render(t *translator, _ bool) (string, error) {
	node := "IN on " + in.Column
	if in.NotIn {
		node = "NOT " + node
	}

	col, err := t.column(node, in.Column)
	if err != nil {
		return "", err
	}

	if len(in.Values) == 0 {
		if in.NotIn {
			return "1=1", nil
		}
		return "1=0", nil
	}

	markers := make([]string, len(in.Values))
	for i, val := range in.Values {
		if isNullValue(val) {
			return "", t.unsupported(node, "NULL in value list")
		}
		markers[i] = t.params.add(val)
	}

	op := " IN ("
	if in.NotIn {
		op = " NOT IN ("
	}
	return col + op + strings.Join(markers, ",") + ")", nil
}

// expandValues turns a single slice argument into a list of values. Byte
// slices are single values.
func expandValues(values []interface{}) []interface{} {
	if len(values) != 1 || values[0] == nil {
		return values
	}
	if _, ok := values[0].(driver.Valuer); ok {
		return values
	}
	v := reflect.ValueOf(values[0])
	if (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) || v.Type().Elem().Kind() == reflect.Uint8 {
		return values
	}
	expanded := make([]interface{}, v.Len())
	for i := range expanded {
		expanded[i] = v.Index(i).Interface()
	}
	return expanded
}

// PatternKind is the kind of a pattern matching condition.
type PatternKind int

const (
	// PatternLike matches a LIKE pattern as provided
	PatternLike PatternKind = iota
	// PatternNotLike negates PatternLike
	PatternNotLike
	// PatternContains matches values containing a string
	PatternContains
	// PatternStartsWith matches values starting with a string
	PatternStartsWith
	// PatternEndsWith matches values ending with a string
	PatternEndsWith
	// PatternRegexp matches a regular expression
	PatternRegexp
)

// PatternCondition matches a column against a pattern.
type PatternCondition struct {
	Kind    PatternKind
	Column  string
	Pattern interface{}
}

// Like represents a wildcard equality condition ("LIKE" operator)
func Like(col string, pattern interface{}) PatternCondition {
	return PatternCondition{PatternLike, col, pattern}
}

// NotLike represents a wildcard non-equality condition ("NOT LIKE" operator)
func NotLike(col string, pattern interface{}) PatternCondition {
	return PatternCondition{PatternNotLike, col, pattern}
}

// Contains matches values containing s ("LIKE '%s%'").
func Contains(col string, s string) PatternCondition {
	return PatternCondition{PatternContains, col, s}
}

// StartsWith matches values starting with s ("LIKE 's%'").
func StartsWith(col string, s string) PatternCondition {
	return PatternCondition{PatternStartsWith, col, s}
}

// EndsWith matches values ending with s ("LIKE '%s'").
func EndsWith(col string, s string) PatternCondition {
	return PatternCondition{PatternEndsWith, col, s}
}

// Regexp matches values against a regular expression. Not all dialects
// support it.
func Regexp(col string, expr string) PatternCondition {
	return PatternCondition{PatternRegexp, col, expr}
}

func (p PatternCondition) render(t *translator, _ bool) (string, error) {
	node := p.kindName() + " on " + p.Column
	col, err := t.column(node, p.Column)
	if err != nil {
		return "", err
	}

	if isNullValue(p.Pattern) {
		return "", t.unsupported(node, "NULL pattern")
	}

	switch p.Kind {
	case PatternLike:
		return col + " LIKE " + t.params.add(p.Pattern), nil
	case PatternNotLike:
		return col + " NOT LIKE " + t.params.add(p.Pattern), nil
	case PatternContains:
		return col + " LIKE " + t.params.add(fmt.Sprintf("%%%v%%", p.Pattern)), nil
	case PatternStartsWith:
		return col + " LIKE " + t.params.add(fmt.Sprintf("%v%%", p.Pattern)), nil
	case PatternEndsWith:
		return col + " LIKE " + t.params.add(fmt.Sprintf("%%%v", p.Pattern)), nil
	case PatternRegexp:
		if _, ok := t.dialect.Regexp(col, ""); !ok {
			return "", t.unsupported(node, "no regular expression operator")
		}
		asSQL, _ := t.dialect.Regexp(col, t.params.add(p.Pattern))
		return asSQL, nil
	default:
		return "", t.unsupported(node, "unknown pattern kind")
	}
}

func (p PatternCondition) kindName() string {
	switch p.Kind {
	case PatternLike:
		return "LIKE"
	case PatternNotLike:
		return "NOT LIKE"
	case PatternContains:
		return "Contains"
	case PatternStartsWith:
		return "StartsWith"
	case PatternEndsWith:
		return "EndsWith"
	case PatternRegexp:
		return "Regexp"
	default:
		return fmt.Sprintf("PatternKind(%d)", int(p.Kind))
	}
}

// NullCondition checks a column for NULL.
type NullCondition struct {
	Column  string
	NotNull bool
}

// IsNull represents a simple nullity condition ("IS NULL" operator)
func IsNull(col string) NullCondition {
	return NullCondition{col, false}
}

// IsNotNull represents a simple non-nullity condition ("IS NOT NULL" operator)
func IsNotNull(col string) NullCondition {
	return NullCondition{col, true}
}

func (n NullCondition) render(t *translator, _ bool) (string, error) {
	node := "IS NULL on " + n.Column
	if n.NotNull {
		node = "IS NOT NULL on " + n.Column
	}
	col, err := t.column(node, n.Column)
	if err != nil {
		return "", err
	}
	if n.NotNull {
		return col + " IS NOT NULL", nil
	}
	return col + " IS NULL", nil
}

// SQLCondition represents a condition written directly in SQL, allows
// using complex SQL conditions not supported by the other constructors.
type SQLCondition struct {
	Condition string
	Binds     []interface{}
}

// SQLCond creates an SQL condition. Question marks must be used for
// placeholders in the condition regardless of the dialect; they are
// replaced with the dialect's parameter markers. Column names are used
// as written. Never build the condition from user input.
func SQLCond(condition string, binds ...interface{}) SQLCondition {
	return SQLCondition{condition, binds}
}

func (cond SQLCondition) render(t *translator, root bool) (string, error) {
	if strings.Count(cond.Condition, "?") != len(cond.Binds) {
		return "", t.unsupported("SQL condition", fmt.Sprintf(
			"%d placeholders but %d bindings",
			strings.Count(cond.Condition, "?"),
			len(cond.Binds),
		))
	}

	var b strings.Builder
	next := 0
	for _, r := range cond.Condition {
		if r == '?' {
			b.WriteString(t.params.add(cond.Binds[next]))
			next++
			continue
		}
		b.WriteRune(r)
	}

	if root {
		return b.String(), nil
	}
	return "(" + b.String() + ")", nil
}
