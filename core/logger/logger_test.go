package logger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gestion/core/logger"
)

func TestContextWithLogger_KeepsExistingLogger(t *testing.T) {
	ctx, rlog := logger.ContextWithLogger(context.Background())
	id := logger.RequestIDFromContext(ctx)
	assert.NotEmpty(t, id)

	ctx2, rlog2 := logger.ContextWithLogger(ctx)
	assert.Equal(t, ctx, ctx2)
	assert.Equal(t, rlog, rlog2)
}

func TestContextWithLoggerIdentity(t *testing.T) {
	ctx := logger.ContextWithRequestID(context.Background(), "abc")
	ctx, _ = logger.ContextWithLoggerIdentity(ctx, "eddy")
	assert.Equal(t, "abc", logger.RequestIDFromContext(ctx))
	assert.Equal(t, "eddy", logger.IdentityFromContext(ctx))
	assert.Empty(t, logger.IdentityFromContext(context.Background()))
}

func TestAddRequestID(t *testing.T) {
	router := mux.NewRouter()
	logger.AddRequestID(router)
	var seen string
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(logger.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.RequestIDHeader, "from-client")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "from-client", seen)
	assert.Equal(t, "from-client", rec.Header().Get(logger.RequestIDHeader))
}
