/*
Package store provides table level access to the remote database.

A Store offers select, insert, update and delete with equality filters,
ordering and embedding of related tables. Embeds use the PostgREST
selection syntax, for example

	store.From("customers").
		Select("*,ofertas(*,precios(*)),extras(*,precios(*))").
		Eq("id", 7)

selects all columns of the customer with id 7, the offer it references
together with the offer's prices, and all extras which reference the
customer, each with its prices.

Drivers live in sub packages: postgrest talks to a Supabase project over
HTTP, postgres talks SQL to the database directly, and memory keeps tables
in process.
*/
package store

import (
	"context"
	"fmt"
)

// Row is one record, keyed by column name. Embedded relations appear as nested
// Row values (many-to-one) or lists of rows (one-to-many).
type Row map[string]interface{}

// Rows is a list of records
type Rows []Row

// Filter is an equality filter on a column
type Filter struct {
	Column string
	Value  interface{}
}

// Order is an ordering on a column
type Order struct {
	Column    string
	Ascending bool
}

// Eq returns an equality filter
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Value: value}
}

// Store is the query interface to the database
type Store interface {
	// Select returns all rows matching the query
	Select(ctx context.Context, query Query) (Rows, error)
	// SelectOne returns exactly one row. It fails with ErrNotFound if no row
	// matches and with ErrMultipleRows if more than one does.
	SelectOne(ctx context.Context, query Query) (Row, error)
	// Insert inserts rows into table and returns the created rows
	Insert(ctx context.Context, table string, rows ...Row) (Rows, error)
	// Update sets values on all rows of table matching the filters and returns
	// the updated rows. At least one filter is required.
	Update(ctx context.Context, table string, values Row, filters ...Filter) (Rows, error)
	// Delete deletes all rows of table matching the filters and returns the
	// deleted rows. At least one filter is required.
	Delete(ctx context.Context, table string, filters ...Filter) (Rows, error)
}

// One returns the only row of rows, as required by SelectOne
func One(rows Rows) (Row, error) {
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return rows[0], nil
	}
	return nil, fmt.Errorf("%w: got %d", ErrMultipleRows, len(rows))
}

// RequireFilters returns ErrUnfiltered if filters is empty
func RequireFilters(table string, filters []Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("%w: %s", ErrUnfiltered, table)
	}
	for _, f := range filters {
		if !validIdentifier(f.Column) {
			return fmt.Errorf("%w: invalid filter column '%s'", ErrBadSelect, f.Column)
		}
	}
	return nil
}

// String returns the value of a column as string, if it is one
func (r Row) String(column string) (string, bool) {
	s, ok := r[column].(string)
	return s, ok
}

// Without returns a copy of the row without the given columns
func (r Row) Without(columns ...string) Row {
	result := make(Row, len(r))
	for k, v := range r {
		result[k] = v
	}
	for _, c := range columns {
		delete(result, c)
	}
	return result
}
