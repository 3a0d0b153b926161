package store

import (
	"fmt"
	"regexp"
	"strings"
)

// Query describes a select on one table
type Query struct {
	Table string
	// Columns is the selection in PostgREST syntax, "*" if empty
	Columns string
	Filters []Filter
	Orders  []Order
	// Limit restricts the number of rows if greater than zero
	Limit int
}

// From starts a query on table
func From(table string) Query {
	return Query{Table: table, Columns: "*"}
}

// Select sets the selection
func (q Query) Select(columns string) Query {
	q.Columns = columns
	return q
}

// Eq adds an equality filter
func (q Query) Eq(column string, value interface{}) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Eq(column, value))
	return q
}

// Order adds an ordering. Orderings apply in the sequence they were added.
func (q Query) Order(column string, ascending bool) Query {
	orders := make([]Order, len(q.Orders), len(q.Orders)+1)
	copy(orders, q.Orders)
	q.Orders = append(orders, Order{Column: column, Ascending: ascending})
	return q
}

// WithLimit limits the number of returned rows
func (q Query) WithLimit(limit int) Query {
	q.Limit = limit
	return q
}

// Validate checks table, selection, filters and orderings and returns the parsed
// selection
func (q Query) Validate() (Selection, error) {
	if !validIdentifier(q.Table) {
		return Selection{}, fmt.Errorf("%w: invalid table '%s'", ErrBadSelect, q.Table)
	}
	sel, err := ParseSelection(q.Columns)
	if err != nil {
		return sel, err
	}
	for _, f := range q.Filters {
		if !validIdentifier(f.Column) {
			return sel, fmt.Errorf("%w: invalid filter column '%s'", ErrBadSelect, f.Column)
		}
	}
	for _, o := range q.Orders {
		if !validIdentifier(o.Column) {
			return sel, fmt.Errorf("%w: invalid order column '%s'", ErrBadSelect, o.Column)
		}
	}
	return sel, nil
}

// Selection is a parsed column selection
type Selection struct {
	// All is true if the selection contains *
	All     bool
	Columns []string
	Embeds  []Embed
}

// Embed is a related table embedded into the rows of its parent
type Embed struct {
	Name      string
	Selection Selection
}

var identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(s string) bool {
	return identifierRegexp.MatchString(s)
}

// ParseSelection parses a PostgREST style selection like
// "id,nombre,ofertas(*,precios(*))". An empty selection selects all columns.
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return Selection{All: true}, nil
	}
	var sel Selection
	items, err := splitTopLevel(s)
	if err != nil {
		return sel, err
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		switch {
		case item == "*":
			sel.All = true
		case strings.HasSuffix(item, ")"):
			open := strings.IndexByte(item, '(')
			if open < 0 {
				return sel, fmt.Errorf("%w: unbalanced parenthesis in '%s'", ErrBadSelect, s)
			}
			name := strings.TrimSpace(item[:open])
			if !validIdentifier(name) {
				return sel, fmt.Errorf("%w: invalid relation '%s'", ErrBadSelect, name)
			}
			inner, err := ParseSelection(item[open+1 : len(item)-1])
			if err != nil {
				return sel, err
			}
			sel.Embeds = append(sel.Embeds, Embed{Name: name, Selection: inner})
		default:
			if !validIdentifier(item) {
				return sel, fmt.Errorf("%w: invalid column '%s'", ErrBadSelect, item)
			}
			sel.Columns = append(sel.Columns, item)
		}
	}
	return sel, nil
}

// splitTopLevel splits s at commas which are not inside parentheses
func splitTopLevel(s string) ([]string, error) {
	var items []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parenthesis in '%s'", ErrBadSelect, s)
			}
		case ',':
			if depth == 0 {
				items = append(items, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parenthesis in '%s'", ErrBadSelect, s)
	}
	items = append(items, s[start:])
	for _, item := range items {
		if len(strings.TrimSpace(item)) == 0 {
			return nil, fmt.Errorf("%w: empty item in '%s'", ErrBadSelect, s)
		}
	}
	return items, nil
}

// String renders the selection in canonical form
func (s Selection) String() string {
	var parts []string
	if s.All {
		parts = append(parts, "*")
	}
	parts = append(parts, s.Columns...)
	for _, e := range s.Embeds {
		parts = append(parts, e.Name+"("+e.Selection.String()+")")
	}
	return strings.Join(parts, ",")
}
