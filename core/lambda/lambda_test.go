package lambda

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/extras/{cliente_id}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Echo-Query", r.URL.Query().Get("q"))
		w.Header().Set("X-Echo-Auth", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"cliente_id":"` + mux.Vars(r)["cliente_id"] + `","body":` + string(body) + `}`))
	}).Methods(http.MethodPost)
	router.HandleFunc("/binary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xff, 0xfe, 0x00})
	})
	return router
}

func TestHandler(t *testing.T) {
	handler := NewHandler(echoRouter())
	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/extras/7",
		QueryStringParameters: map[string]string{"q": "x"},
		Headers:               map[string]string{"Authorization": "Bearer abc"},
		Body:                  `{"cantidad":2}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.False(t, resp.IsBase64Encoded)
	assert.JSONEq(t, `{"cliente_id":"7","body":{"cantidad":2}}`, resp.Body)
	assert.Equal(t, "x", resp.Headers["X-Echo-Query"])
	assert.Equal(t, "Bearer abc", resp.Headers["X-Echo-Auth"])
	assert.Equal(t, []string{"application/json"}, resp.MultiValueHeaders["Content-Type"])
}

func TestHandler_Base64(t *testing.T) {
	handler := NewHandler(echoRouter())
	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/extras/1",
		Body:            base64.StdEncoding.EncodeToString([]byte(`[1,2]`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cliente_id":"1","body":[1,2]}`, resp.Body)

	resp, err = handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/binary"})
	require.NoError(t, err)
	assert.True(t, resp.IsBase64Encoded)
	decoded, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfe, 0x00}, decoded)

	resp, err = handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost, Path: "/extras/1", Body: "%%%", IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_NotFound(t *testing.T) {
	resp, err := NewHandler(echoRouter())(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/nope"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
