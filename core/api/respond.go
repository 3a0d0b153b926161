package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/schema"
	"github.com/relabs-tech/gestion/core/store"
)

// ErrorType classifies errors in the structured error envelope
type ErrorType string

// the error types of the envelope
const (
	ValidationError ErrorType = "VALIDATION_ERROR"
	DatabaseError   ErrorType = "DATABASE_ERROR"
	NotFoundError   ErrorType = "NOT_FOUND"
)

// Envelope is the structured response of the agenda, customer list, extras
// and admin routes
type Envelope struct {
	Success bool      `json:"success"`
	Type    ErrorType `json:"type,omitempty"`
	Message string    `json:"message"`
	DBError string    `json:"dbError,omitempty"`
	Details []string  `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"cannot encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError writes {"error": message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure logs err and writes it as {"error": ...} with the status
// statusFor picks
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	rlog := logger.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		rlog.WithError(err).Errorln("request failed")
	} else {
		rlog.WithError(err).Infoln("request rejected")
	}
	writeError(w, status, err.Error())
}

// writeEnvelope writes a failed envelope
func writeEnvelope(w http.ResponseWriter, status int, errorType ErrorType, message string, err error) {
	envelope := Envelope{Type: errorType, Message: message}
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		envelope.Details = verr.Details
	case err != nil && errorType == DatabaseError:
		envelope.DBError = dbMessage(err)
	}
	writeJSON(w, status, envelope)
}

// dbMessage returns the message of a remote database error without code and details
func dbMessage(err error) string {
	var serr *store.Error
	if errors.As(err, &serr) && len(serr.Message) > 0 {
		return serr.Message
	}
	return err.Error()
}

// statusFor maps an error to the HTTP status code of the response
func statusFor(err error) int {
	var serr *store.Error
	var verr *schema.ValidationError
	var berr *badRequestError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrMultipleRows):
		return http.StatusNotAcceptable
	case errors.Is(err, store.ErrUnfiltered), errors.Is(err, store.ErrBadSelect):
		return http.StatusBadRequest
	case errors.As(err, &verr), errors.As(err, &berr):
		return http.StatusBadRequest
	case errors.As(err, &serr) && serr.Status > 0:
		return serr.Status
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// badRequestError is returned for request bodies which are not JSON
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string {
	return "invalid request body: " + e.err.Error()
}

func (e *badRequestError) Unwrap() error {
	return e.err
}
