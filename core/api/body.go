package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/gestion/core/store"
)

// maxBodySize limits request bodies
const maxBodySize = 1 << 20

// requestSchemas are the names of the embedded schemas readBody validates against
var requestSchemas = []string{
	"cliente", "client", "contrato", "lista_cliente", "extra", "factura", "turno", "precios",
}

// schemaID returns the id of an embedded request schema
func schemaID(name string) string {
	return "https://gestion.relabs.tech/schemas/" + name + ".json"
}

// readBody reads the JSON object in the request body and validates it against
// the named schema. An empty body counts as an empty object. Numbers are kept
// as json.Number.
func (b *Backend) readBody(r *http.Request, schemaName string) (map[string]interface{}, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, &badRequestError{err: err}
	}
	if len(data) > maxBodySize {
		return nil, &badRequestError{err: fmt.Errorf("body exceeds %d bytes", maxBodySize)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	var body map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return nil, &badRequestError{err: err}
	}
	if body == nil {
		return nil, &badRequestError{err: fmt.Errorf("expected a JSON object")}
	}
	if err := b.validator.ValidateBytes(data, schemaID(schemaName)); err != nil {
		return nil, err
	}
	return body, nil
}

// pick returns a row with the given columns of body. Missing columns are null.
func pick(body map[string]interface{}, columns ...string) store.Row {
	row := make(store.Row, len(columns))
	for _, c := range columns {
		row[c] = body[c]
	}
	return row
}
