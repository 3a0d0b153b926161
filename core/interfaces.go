package core

import "context"

// Notifier is an interface to receive change notifications. Notify is called after
// a modifying operation on a table succeeded; payload is the JSON of the affected rows.
type Notifier interface {
	Notify(ctx context.Context, resource string, operation Operation, payload []byte) error
}
