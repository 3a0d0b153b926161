// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast in-process access to a REST api

Instead of marshalling HTTP, the client talks directly to the mux router. The client
is the tool of choice for unit tests. With NewWithURL the same calls go to a
remote server over HTTP.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// Client provides easy access to the REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	token      string
	ctx        context.Context

	defaultHeaders map[string]string
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the mux router
//
// WithToken() adds a bearer token to each request.
// WithContext() specifies a different base context all together.
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend
//
// WithToken adds an authorization token to the request header.
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := make(map[string]string, len(c.defaultHeaders)+1)
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	headers[key] = value
	c.defaultHeaders = headers
	return c
}

// WithToken returns a new client which sends token as bearer token
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the base context of requests
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// StatusError is returned when the handler answered with an unexpected status
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: handler returned unexpected status code %d. Error: %s", e.Method, e.Path, e.Status, e.Body)
}

// Do sends a request with method to path and decodes the response into result,
// whatever the status code. It returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// body and result can be nil.
func (c Client) Do(method, path string, body interface{}, result interface{}) (int, error) {
	status, _, resBody, err := c.roundTrip(method, path, nil, body)
	if err != nil {
		return status, err
	}
	return status, decode(resBody, result)
}

// roundTrip performs the request either through the router or over HTTP
func (c Client) roundTrip(method, path string, headers map[string]string, body interface{}) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		j, ok := body.([]byte)
		if !ok {
			var err error
			j, err = json.Marshal(body)
			if err != nil {
				return http.StatusBadRequest, nil, nil, fmt.Errorf("%s to %s: %w", method, path, err)
			}
		}
		reader = bytes.NewReader(j)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	if err != nil {
		return http.StatusBadRequest, nil, nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	for key, value := range headers {
		r.Header.Add(key, value)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return res.StatusCode, res.Header, rec.Body.Bytes(), nil
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	return res.StatusCode, res.Header, resBody, err
}

func decode(body []byte, result interface{}) error {
	if len(body) == 0 || result == nil {
		return nil
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = body
		return nil
	}
	return json.Unmarshal(body, result)
}

// expect performs the request and fails unless the status is one of accepted
func (c Client) expect(method, path string, headers map[string]string, body, result interface{}, accepted ...int) (int, http.Header, error) {
	status, header, resBody, err := c.roundTrip(method, path, headers, body)
	if err != nil {
		return status, header, err
	}
	for _, a := range accepted {
		if status == a {
			return status, header, decode(resBody, result)
		}
	}
	return status, header, &StatusError{Method: method, Path: path, Status: status, Body: strings.TrimSpace(string(resBody))}
}

// RawGet gets the resource from path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// The path can be extend with query strings.
//
// result can be map[string]interface{} or a raw *[]byte.
// result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	status, _, err := c.expect(http.MethodGet, path, nil, nil, result, http.StatusOK, http.StatusNoContent)
	return status, err
}

// RawGetWithHeader gets the resource from path with additional request headers.
// Expects http.StatusOK as response. Returns the actual http status code and the header.
func (c Client) RawGetWithHeader(path string, header map[string]string, result interface{}) (int, http.Header, error) {
	return c.expect(http.MethodGet, path, header, nil, result, http.StatusOK, http.StatusNoContent)
}

// RawPost posts a resource to path. Expects http.StatusCreated or http.StatusOK as response,
// otherwise it will flag an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	status, _, err := c.expect(http.MethodPost, path, nil, body, result, http.StatusCreated, http.StatusOK)
	return status, err
}

// RawPut puts a resource to path. Expects http.StatusOK, http.StatusCreated or http.StatusNoContent as valid responses,
// otherwise it will flag an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	status, _, err := c.expect(http.MethodPut, path, nil, body, result, http.StatusOK, http.StatusCreated, http.StatusNoContent)
	return status, err
}

// RawDelete deletes the resource at path. Expects http.StatusOK or http.StatusNoContent as response,
// otherwise it will flag an error.
//
// Returns the actual http status code.
func (c Client) RawDelete(path string, result interface{}) (int, error) {
	status, _, err := c.expect(http.MethodDelete, path, nil, nil, result, http.StatusOK, http.StatusNoContent)
	return status, err
}
