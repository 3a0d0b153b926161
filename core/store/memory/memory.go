// Package memory is an in-process store driver. Tables live in maps guarded by a
// mutex; rows without an "id" get a serial one on insert. It serves tests and
// local development without a database.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/gestion/core/store"
)

// Store is the in-memory store
type Store struct {
	mutex       sync.RWMutex
	tables      map[string]*table
	foreignKeys []store.ForeignKey
}

type table struct {
	rows   store.Rows
	serial int64
}

var _ store.Store = (*Store)(nil)

// New creates a store with the given tables and foreign keys
func New(tables []string, foreignKeys ...store.ForeignKey) *Store {
	s := &Store{
		tables:      make(map[string]*table, len(tables)),
		foreignKeys: foreignKeys,
	}
	for _, name := range tables {
		s.tables[name] = &table{}
	}
	return s
}

func undefinedTable(name string) error {
	return &store.Error{
		Status:  http.StatusNotFound,
		Code:    "42P01",
		Message: fmt.Sprintf("relation \"%s\" does not exist", name),
	}
}

// Select implements store.Store
func (s *Store) Select(ctx context.Context, query store.Query) (store.Rows, error) {
	sel, err := query.Validate()
	if err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.tables[query.Table]
	if !ok {
		return nil, undefinedTable(query.Table)
	}
	var matching store.Rows
	for _, row := range t.rows {
		if matches(row, query.Filters) {
			matching = append(matching, row)
		}
	}
	if len(query.Orders) > 0 {
		sort.SliceStable(matching, func(i, j int) bool {
			for _, o := range query.Orders {
				c := compare(matching[i][o.Column], matching[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	if query.Limit > 0 && len(matching) > query.Limit {
		matching = matching[:query.Limit]
	}

	result := store.Rows{}
	for _, row := range matching {
		projected, err := s.project(query.Table, row, sel)
		if err != nil {
			return nil, err
		}
		result = append(result, projected)
	}
	return result, nil
}

// SelectOne implements store.Store
func (s *Store) SelectOne(ctx context.Context, query store.Query) (store.Row, error) {
	rows, err := s.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	return store.One(rows)
}

// Insert implements store.Store
func (s *Store) Insert(ctx context.Context, tableName string, rows ...store.Row) (store.Rows, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil, undefinedTable(tableName)
	}
	// rows are committed together, a conflict in any row leaves the table unchanged
	serial := t.serial
	pending := store.Rows{}
	for _, row := range rows {
		r := clone(row)
		if r["id"] == nil {
			serial++
			r["id"] = serial
		} else if id, err := strconv.ParseInt(fmt.Sprint(r["id"]), 10, 64); err == nil && id > serial {
			serial = id
		}
		if hasID(t.rows, r["id"]) || hasID(pending, r["id"]) {
			return nil, &store.Error{
				Status:  http.StatusConflict,
				Code:    "23505",
				Message: fmt.Sprintf("duplicate key value violates unique constraint \"%s_pkey\"", tableName),
			}
		}
		pending = append(pending, r)
	}
	t.serial = serial
	t.rows = append(t.rows, pending...)
	result := store.Rows{}
	for _, r := range pending {
		result = append(result, clone(r))
	}
	return result, nil
}

// Update implements store.Store
func (s *Store) Update(ctx context.Context, tableName string, values store.Row, filters ...store.Filter) (store.Rows, error) {
	if err := store.RequireFilters(tableName, filters); err != nil {
		return nil, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil, undefinedTable(tableName)
	}
	result := store.Rows{}
	for _, row := range t.rows {
		if !matches(row, filters) {
			continue
		}
		for k, v := range clone(values) {
			row[k] = v
		}
		result = append(result, clone(row))
	}
	return result, nil
}

// Delete implements store.Store
func (s *Store) Delete(ctx context.Context, tableName string, filters ...store.Filter) (store.Rows, error) {
	if err := store.RequireFilters(tableName, filters); err != nil {
		return nil, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil, undefinedTable(tableName)
	}
	result := store.Rows{}
	kept := t.rows[:0]
	for _, row := range t.rows {
		if matches(row, filters) {
			result = append(result, clone(row))
		} else {
			kept = append(kept, row)
		}
	}
	t.rows = kept
	return result, nil
}

// project applies a selection to a row, embedding related tables. Must be called
// with the read lock held.
func (s *Store) project(tableName string, row store.Row, sel store.Selection) (store.Row, error) {
	var result store.Row
	if sel.All {
		result = clone(row)
	} else {
		result = store.Row{}
		for _, c := range sel.Columns {
			result[c] = cloneValue(row[c])
		}
	}
	for _, embed := range sel.Embeds {
		rel, err := store.ResolveEmbed(s.foreignKeys, tableName, embed.Name)
		if err != nil {
			return nil, err
		}
		related, ok := s.tables[embed.Name]
		if !ok {
			return nil, undefinedTable(embed.Name)
		}
		if rel.Many {
			list := []interface{}{}
			for _, child := range related.rows {
				if equal(child[rel.Column], row[rel.RefColumn]) {
					p, err := s.project(embed.Name, child, embed.Selection)
					if err != nil {
						return nil, err
					}
					list = append(list, map[string]interface{}(p))
				}
			}
			result[embed.Name] = list
			continue
		}
		result[embed.Name] = nil
		for _, parent := range related.rows {
			if row[rel.Column] != nil && equal(parent[rel.RefColumn], row[rel.Column]) {
				p, err := s.project(embed.Name, parent, embed.Selection)
				if err != nil {
					return nil, err
				}
				result[embed.Name] = map[string]interface{}(p)
				break
			}
		}
	}
	return result, nil
}

func hasID(rows store.Rows, id interface{}) bool {
	for _, row := range rows {
		if equal(row["id"], id) {
			return true
		}
	}
	return false
}

func matches(row store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		if !equal(row[f.Column], f.Value) {
			return false
		}
	}
	return true
}

// equal compares values by their text representation, the way query string
// filters compare in PostgREST
func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return text(a) == text(b)
}

func text(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func number(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// compare orders nulls last, numbers numerically and everything else by text
func compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	x, y := text(a), text(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func clone(row store.Row) store.Row {
	result := make(store.Row, len(row))
	for k, v := range row {
		result[k] = cloneValue(v)
	}
	return result
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case store.Row:
		return map[string]interface{}(clone(t))
	case []interface{}:
		l := make([]interface{}, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	}
	return v
}
