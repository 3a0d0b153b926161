package core

// Operation represents a modifying table operation performed on behalf of a
// request, one of Create, Update, Delete
type Operation string

// all operations reported to a Notifier
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)
