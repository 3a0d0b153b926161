// Package postgrest is a store driver for the REST interface of a Supabase
// project (PostgREST).
package postgrest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/store"
)

const (
	singleObjectMediaType = "application/vnd.pgrst.object+json"
	// codeSingularity is reported when a single object was requested but zero or
	// more than one row matched
	codeSingularity = "PGRST116"
)

// Configuration for the PostgREST driver
type Configuration struct {
	// URL is the project URL, e.g. https://xyz.supabase.co
	URL string
	// Key is the API key, sent both as apikey and as bearer token
	Key string
	// Schema selects a non default schema through the profile headers
	Schema string
	// Timeout for a single request, default 20 seconds
	Timeout time.Duration
	// HTTPClient overrides the default client
	HTTPClient *http.Client
}

// Client is the PostgREST store driver
type Client struct {
	baseURL    string
	key        string
	schema     string
	httpClient *http.Client
}

var _ store.Store = (*Client)(nil)

// New returns a new PostgREST client
func New(config Configuration) (*Client, error) {
	if len(config.URL) == 0 {
		return nil, fmt.Errorf("postgrest: URL must not be empty")
	}
	u, err := url.Parse(config.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("postgrest: invalid URL '%s'", config.URL)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.URL, "/") + "/rest/v1/",
		key:        config.Key,
		schema:     config.Schema,
		httpClient: httpClient,
	}, nil
}

// Select implements store.Store
func (c *Client) Select(ctx context.Context, query store.Query) (store.Rows, error) {
	params, err := queryParameters(query)
	if err != nil {
		return nil, err
	}
	var rows store.Rows
	err = c.do(ctx, http.MethodGet, query.Table, params, nil, "application/json", &rows)
	return rows, err
}

// SelectOne implements store.Store
func (c *Client) SelectOne(ctx context.Context, query store.Query) (store.Row, error) {
	params, err := queryParameters(query)
	if err != nil {
		return nil, err
	}
	var row store.Row
	err = c.do(ctx, http.MethodGet, query.Table, params, nil, singleObjectMediaType, &row)
	return row, err
}

// Insert implements store.Store
func (c *Client) Insert(ctx context.Context, table string, rows ...store.Row) (store.Rows, error) {
	if _, err := store.From(table).Validate(); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = store.Rows{}
	}
	var created store.Rows
	err := c.do(ctx, http.MethodPost, table, url.Values{}, rows, "application/json", &created)
	return created, err
}

// Update implements store.Store
func (c *Client) Update(ctx context.Context, table string, values store.Row, filters ...store.Filter) (store.Rows, error) {
	if err := store.RequireFilters(table, filters); err != nil {
		return nil, err
	}
	params, err := queryParameters(store.Query{Table: table, Filters: filters})
	if err != nil {
		return nil, err
	}
	params.Del("select")
	var updated store.Rows
	err = c.do(ctx, http.MethodPatch, table, params, values, "application/json", &updated)
	return updated, err
}

// Delete implements store.Store
func (c *Client) Delete(ctx context.Context, table string, filters ...store.Filter) (store.Rows, error) {
	if err := store.RequireFilters(table, filters); err != nil {
		return nil, err
	}
	params, err := queryParameters(store.Query{Table: table, Filters: filters})
	if err != nil {
		return nil, err
	}
	params.Del("select")
	var deleted store.Rows
	err = c.do(ctx, http.MethodDelete, table, params, nil, "application/json", &deleted)
	return deleted, err
}

// queryParameters renders select, filters, order and limit as PostgREST query parameters
func queryParameters(query store.Query) (url.Values, error) {
	sel, err := query.Validate()
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("select", sel.String())
	for _, f := range query.Filters {
		params.Add(f.Column, filterValue(f.Value))
	}
	if len(query.Orders) > 0 {
		var orders []string
		for _, o := range query.Orders {
			direction := "desc"
			if o.Ascending {
				direction = "asc"
			}
			orders = append(orders, o.Column+"."+direction)
		}
		params.Set("order", strings.Join(orders, ","))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	return params, nil
}

func filterValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "is.null"
	case string:
		return "eq." + t
	case float64:
		return "eq." + strconv.FormatFloat(t, 'f', -1, 64)
	}
	return "eq." + fmt.Sprint(v)
}

func (c *Client) do(ctx context.Context, method, table string, params url.Values, body interface{}, accept string, result interface{}) error {
	rlog := logger.FromContext(ctx)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("postgrest: cannot marshal body for %s: %w", table, err)
		}
		reader = bytes.NewReader(data)
	}
	u := c.baseURL + url.PathEscape(table)
	if encoded := params.Encode(); len(encoded) > 0 {
		u += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if len(c.schema) > 0 {
		if method == http.MethodGet {
			req.Header.Set("Accept-Profile", c.schema)
		} else {
			req.Header.Set("Content-Profile", c.schema)
		}
	}
	if requestID := logger.RequestIDFromContext(ctx); len(requestID) > 0 {
		req.Header.Set(logger.RequestIDHeader, requestID)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		rlog.WithError(err).Errorf("postgrest: %s %s failed", method, table)
		return fmt.Errorf("postgrest: %s %s: %w", method, table, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("postgrest: cannot read response for %s %s: %w", method, table, err)
	}
	rlog.Debugf("postgrest: %s %s -> %d in %s", method, table, res.StatusCode, time.Since(start))

	if res.StatusCode >= 300 {
		return responseError(res.StatusCode, data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err = decoder.Decode(result); err != nil {
		return fmt.Errorf("postgrest: cannot decode response for %s %s: %w", method, table, err)
	}
	return nil
}

// responseError converts an error response into store errors
func responseError(status int, data []byte) error {
	e := &store.Error{Status: status}
	if err := json.Unmarshal(data, e); err != nil || len(e.Message) == 0 {
		e.Message = strings.TrimSpace(string(data))
		if len(e.Message) == 0 {
			e.Message = http.StatusText(status)
		}
	}
	if e.Code == codeSingularity || status == http.StatusNotAcceptable {
		// details read "The result contains 0 rows" or "... N rows"
		if strings.Contains(e.Details, " 0 rows") {
			return fmt.Errorf("%w: %s", store.ErrNotFound, e.Error())
		}
		if e.Code == codeSingularity {
			return fmt.Errorf("%w: %s", store.ErrMultipleRows, e.Error())
		}
	}
	return e
}
