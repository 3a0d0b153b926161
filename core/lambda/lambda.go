// Package lambda serves a router from AWS Lambda behind an API Gateway proxy integration
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/relabs-tech/gestion/core/logger"
)

// Handler is a lambda handler for API Gateway proxy events
type Handler func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewHandler returns a lambda handler which passes each event through router
func NewHandler(router http.Handler) Handler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		r, err := request(ctx, event)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Errorln("lambda: cannot convert event")
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)
		return response(rec), nil
	}
}

// Start runs the lambda runtime loop for router. It does not return.
func Start(router http.Handler) {
	logger.Default().Infoln("starting lambda handler")
	awslambda.Start(NewHandler(router))
}

func request(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	query := url.Values{}
	for k, values := range event.MultiValueQueryStringParameters {
		query[k] = append(query[k], values...)
	}
	for k, v := range event.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	u := url.URL{Path: event.Path, RawQuery: query.Encode()}

	r, err := http.NewRequestWithContext(ctx, event.HTTPMethod, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, values := range event.MultiValueHeaders {
		for _, v := range values {
			r.Header.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if len(r.Header.Values(k)) == 0 {
			r.Header.Set(k, v)
		}
	}
	if len(event.RequestContext.RequestID) > 0 && len(r.Header.Get(logger.RequestIDHeader)) == 0 {
		r.Header.Set(logger.RequestIDHeader, event.RequestContext.RequestID)
	}
	r.RemoteAddr = event.RequestContext.Identity.SourceIP
	return r, nil
}

func response(rec *httptest.ResponseRecorder) events.APIGatewayProxyResponse {
	result := rec.Result()
	defer result.Body.Close()
	body := rec.Body.Bytes()

	resp := events.APIGatewayProxyResponse{
		StatusCode:        result.StatusCode,
		Headers:           map[string]string{},
		MultiValueHeaders: map[string][]string{},
	}
	for k, values := range result.Header {
		resp.MultiValueHeaders[k] = values
		resp.Headers[k] = strings.Join(values, ",")
	}
	if len(result.Header.Get("Content-Encoding")) > 0 || !utf8.Valid(body) {
		resp.Body = base64.StdEncoding.EncodeToString(body)
		resp.IsBase64Encoded = true
	} else {
		resp.Body = string(body)
	}
	return resp
}
