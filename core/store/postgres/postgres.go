// Package postgres is a store driver talking SQL to a postgres database through
// lib/pq. Rows are returned as JSON objects built by the database; embedded
// relations are resolved from the foreign keys of the schema.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/relabs-tech/gestion/core/csql"
	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/store"
)

// Store is the postgres store driver
type Store struct {
	db *csql.DB

	mutex       sync.RWMutex
	foreignKeys []store.ForeignKey
}

var _ store.Store = (*Store)(nil)

const foreignKeysQuery = `SELECT kcu.table_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1
ORDER BY kcu.table_name, kcu.column_name;`

// New returns a postgres store for db and loads the foreign keys of its schema
func New(ctx context.Context, db *csql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.LoadForeignKeys(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadForeignKeys reloads the foreign keys used to resolve embedded relations.
// Call it after the schema changed.
func (s *Store) LoadForeignKeys(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, foreignKeysQuery, s.db.Schema)
	if err != nil {
		return fmt.Errorf("cannot load foreign keys: %w", err)
	}
	defer rows.Close()
	var fks []store.ForeignKey
	for rows.Next() {
		var fk store.ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return fmt.Errorf("cannot scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	logger.FromContext(ctx).Debugf("postgres: %d foreign keys in schema %s", len(fks), s.db.Schema)
	s.mutex.Lock()
	s.foreignKeys = fks
	s.mutex.Unlock()
	return nil
}

func (s *Store) statement() *statement {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return &statement{schema: s.db.Schema, foreignKeys: s.foreignKeys}
}

// Select implements store.Store
func (s *Store) Select(ctx context.Context, query store.Query) (store.Rows, error) {
	st := s.statement()
	sqlQuery, err := st.selectQuery(query)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, s.db, sqlQuery, st.parameters)
}

// SelectOne implements store.Store
func (s *Store) SelectOne(ctx context.Context, query store.Query) (store.Row, error) {
	// two rows are enough to tell one from many
	if query.Limit == 0 || query.Limit > 2 {
		query = query.WithLimit(2)
	}
	rows, err := s.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	return store.One(rows)
}

// Insert implements store.Store. Multiple rows are inserted in one transaction.
func (s *Store) Insert(ctx context.Context, table string, rows ...store.Row) (store.Rows, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(err)
	}
	result := store.Rows{}
	for _, row := range rows {
		st := s.statement()
		sqlQuery, err := st.insertQuery(table, row)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		created, err := s.query(ctx, tx, sqlQuery, st.parameters)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		result = append(result, created...)
	}
	if err = tx.Commit(); err != nil {
		return nil, translate(err)
	}
	return result, nil
}

// Update implements store.Store
func (s *Store) Update(ctx context.Context, table string, values store.Row, filters ...store.Filter) (store.Rows, error) {
	st := s.statement()
	sqlQuery, err := st.updateQuery(table, values, filters)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, s.db, sqlQuery, st.parameters)
}

// Delete implements store.Store
func (s *Store) Delete(ctx context.Context, table string, filters ...store.Filter) (store.Rows, error) {
	st := s.statement()
	sqlQuery, err := st.deleteQuery(table, filters)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, s.db, sqlQuery, st.parameters)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// query runs a statement returning one jsonb column and decodes the rows
func (s *Store) query(ctx context.Context, q queryer, sqlQuery string, parameters []interface{}) (store.Rows, error) {
	rlog := logger.FromContext(ctx)
	rlog.Debugln("postgres:", sqlQuery)
	rows, err := q.QueryContext(ctx, sqlQuery, parameters...)
	if err != nil {
		rlog.WithError(err).Errorf("postgres: cannot execute `%s`", sqlQuery)
		return nil, translate(err)
	}
	defer rows.Close()
	result := store.Rows{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, translate(err)
		}
		var row store.Row
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&row); err != nil {
			return nil, fmt.Errorf("postgres: cannot decode row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return result, nil
}

// parameterValue converts row values into driver values. Objects and lists are
// stored as JSON text.
func parameterValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64:
		return t, nil
	case json.Number:
		return t.String(), nil
	case map[string]interface{}, []interface{}, store.Row, store.Rows:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return v, nil
}

// translate converts pq errors into store errors
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	return &store.Error{
		Status:  statusForCode(string(pqErr.Code)),
		Code:    string(pqErr.Code),
		Message: pqErr.Message,
		Details: pqErr.Detail,
		Hint:    pqErr.Hint,
	}
}

// statusForCode maps SQLSTATE codes to HTTP status codes the way PostgREST does
func statusForCode(code string) int {
	switch {
	case code == "42P01":
		return http.StatusNotFound
	case code == "23502", code == "42703", strings.HasPrefix(code, "22"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "23"):
		return http.StatusConflict
	case code == "42501":
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
