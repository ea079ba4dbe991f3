package sqlgen

import "strconv"

// Parameter name prefixes. INSERT statements name their parameters P1, P2,
// ...; all other statements use Parameter1, Parameter2, ...
const (
	insertParamPrefix = "P"
	paramPrefix       = "Parameter"
)

// Param is a single bound parameter. Name is the marker exactly as it
// appears in the SQL text (e.g. "@P1", "?Parameter2", ":P1", "$3").
type Param struct {
	Name  string
	Value interface{}
}

// ParameterBag is the ordered list of parameters of a statement. Parameters
// appear in the order they were emitted, which is also the order their
// markers appear in the SQL text.
type ParameterBag struct {
	params []Param
}

// NewParameterBag creates a bag from the provided parameters.
func NewParameterBag(params ...Param) ParameterBag {
	return ParameterBag{params: append([]Param(nil), params...)}
}

// Len returns the number of parameters.
func (b ParameterBag) Len() int {
	return len(b.params)
}

// All returns a copy of the parameters in emission order.
func (b ParameterBag) All() []Param {
	return append([]Param(nil), b.params...)
}

// Names returns the parameter names in emission order.
func (b ParameterBag) Names() []string {
	names := make([]string, len(b.params))
	for i, p := range b.params {
		names[i] = p.Name
	}
	return names
}

// Values returns the parameter values in emission order.
func (b ParameterBag) Values() []interface{} {
	values := make([]interface{}, len(b.params))
	for i, p := range b.params {
		values[i] = p.Value
	}
	return values
}

// Get returns the value of the named parameter.
func (b ParameterBag) Get(name string) (interface{}, bool) {
	for _, p := range b.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// paramWriter allocates parameter markers for one statement. Numbering is
// strictly increasing, so fragments rendered with the same writer (a SET
// list followed by a WHERE clause, for example) never collide.
type paramWriter struct {
	dialect Dialect
	prefix  string
	last    int
	params  []Param
}

func newParamWriter(d Dialect, prefix string, offset int) *paramWriter {
	return &paramWriter{dialect: d, prefix: prefix, last: offset}
}

func (w *paramWriter) add(value interface{}) string {
	w.last++
	marker := w.dialect.Placeholder(w.last, w.prefix+strconv.Itoa(w.last))
	w.params = append(w.params, Param{Name: marker, Value: bindValue(value)})
	return marker
}

func (w *paramWriter) bag() ParameterBag {
	return ParameterBag{params: append([]Param(nil), w.params...)}
}
