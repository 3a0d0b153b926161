package store

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/gestion/core"
	"github.com/relabs-tech/gestion/core/logger"
)

// Notification is the payload sent to a core.Notifier after a modifying operation
type Notification struct {
	Resource  string         `json:"resource"`
	Operation core.Operation `json:"operation"`
	RequestID string         `json:"request_id,omitempty"`
	Identity  string         `json:"identity,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Rows      Rows           `json:"rows"`
}

type notifyingStore struct {
	Store
	notifier core.Notifier
}

// WithNotifier returns a store which reports successful inserts, updates and
// deletes to notifier. Notification failures are logged and do not fail the
// operation. A nil notifier returns s unchanged.
func WithNotifier(s Store, notifier core.Notifier) Store {
	if notifier == nil {
		return s
	}
	return &notifyingStore{Store: s, notifier: notifier}
}

func (s *notifyingStore) Insert(ctx context.Context, table string, rows ...Row) (Rows, error) {
	result, err := s.Store.Insert(ctx, table, rows...)
	if err == nil {
		s.notify(ctx, table, core.OperationCreate, result)
	}
	return result, err
}

func (s *notifyingStore) Update(ctx context.Context, table string, values Row, filters ...Filter) (Rows, error) {
	result, err := s.Store.Update(ctx, table, values, filters...)
	if err == nil && len(result) > 0 {
		s.notify(ctx, table, core.OperationUpdate, result)
	}
	return result, err
}

func (s *notifyingStore) Delete(ctx context.Context, table string, filters ...Filter) (Rows, error) {
	result, err := s.Store.Delete(ctx, table, filters...)
	if err == nil && len(result) > 0 {
		s.notify(ctx, table, core.OperationDelete, result)
	}
	return result, err
}

func (s *notifyingStore) notify(ctx context.Context, table string, operation core.Operation, rows Rows) {
	rlog := logger.FromContext(ctx)
	payload, err := json.Marshal(Notification{
		Resource:  table,
		Operation: operation,
		RequestID: logger.RequestIDFromContext(ctx),
		Identity:  logger.IdentityFromContext(ctx),
		Timestamp: time.Now().UTC(),
		Rows:      rows,
	})
	if err != nil {
		rlog.WithError(err).Errorf("cannot marshal %s notification for %s", operation, table)
		return
	}
	if err = s.notifier.Notify(ctx, table, operation, payload); err != nil {
		rlog.WithError(err).Errorf("cannot notify %s on %s", operation, table)
	}
}
