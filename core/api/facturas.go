package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/gestion/core/archive"
	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/sanitize"
	"github.com/relabs-tech/gestion/core/store"
)

// readFactura returns the most recent invoice of a customer
func (b *Backend) readFactura(w http.ResponseWriter, r *http.Request) {
	clienteID := mux.Vars(r)["cliente_id"]
	query := store.From(tableFacturas).
		Select("cliente_id,datos_factura").
		Eq("cliente_id", clienteID).
		Order("id", false).
		WithLimit(1)
	rows, err := b.store.Select(r.Context(), query)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "factura not found")
		return
	}
	writeJSON(w, http.StatusOK, rows[0])
}

// createFactura snapshots the sanitized customer data into a new invoice
func (b *Backend) createFactura(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := b.readBody(r, "factura")
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}
	clienteID := fmt.Sprint(body["cliente_id"])

	customer, err := b.store.SelectOne(ctx, store.From(tableCustomers).Select(customerDetails).Eq("id", clienteID))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}
	datos := sanitize.CleanOrEmpty(customer)

	rows, err := b.store.Insert(ctx, tableFacturas, store.Row{
		"cliente_id":    body["cliente_id"],
		"datos_factura": datos,
	})
	if err != nil {
		writeFailure(ctx, w, err)
		return
	}
	factura := rows[0]
	b.archiveFactura(ctx, clienteID, factura["id"], datos)
	writeJSON(w, http.StatusCreated, factura)
}

// archiveFactura stores an invoice snapshot. The database row is the record,
// so failures are only logged.
func (b *Backend) archiveFactura(ctx context.Context, clienteID string, id interface{}, datos interface{}) {
	if b.archive == nil {
		return
	}
	rlog := logger.FromContext(ctx)
	name := b.now().UTC().Format("20060102T150405.000Z")
	if id != nil {
		name = fmt.Sprint(id)
	}
	key := fmt.Sprintf("facturas/%s/%s.json", clienteID, name)

	data, err := json.Marshal(datos)
	if err == nil {
		err = b.archive.Put(ctx, key, data)
	}
	if err != nil {
		rlog.WithError(err).Errorf("cannot archive factura %s", key)
		return
	}
	rlog.Debugf("archived factura %s", key)
}

func (b *Backend) listArchivedFacturas(w http.ResponseWriter, r *http.Request) {
	if b.archive == nil {
		writeError(w, http.StatusNotFound, "archive not configured")
		return
	}
	clienteID := mux.Vars(r)["cliente_id"]
	keys, err := b.archive.List(r.Context(), fmt.Sprintf("facturas/%s/", clienteID))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cliente_id": clienteID,
		"keys":       keys,
	})
}

// unarchiveFacturas removes the invoice snapshots of a deleted customer.
// Failures are only logged.
func (b *Backend) unarchiveFacturas(ctx context.Context, clienteID string) {
	if b.archive == nil {
		return
	}
	rlog := logger.FromContext(ctx)
	keys, err := b.archive.List(ctx, fmt.Sprintf("facturas/%s/", clienteID))
	if err != nil {
		rlog.WithError(err).Errorf("cannot list archived facturas of customer %s", clienteID)
		return
	}
	for _, key := range keys {
		if err := b.archive.Delete(ctx, key); err != nil {
			rlog.WithError(err).Errorf("cannot delete archived factura %s", key)
		}
	}
}

// readArchivedFactura returns one invoice snapshot as stored
func (b *Backend) readArchivedFactura(w http.ResponseWriter, r *http.Request) {
	if b.archive == nil {
		writeError(w, http.StatusNotFound, "archive not configured")
		return
	}
	vars := mux.Vars(r)
	key := fmt.Sprintf("facturas/%s/%s", vars["cliente_id"], vars["name"])
	if err := archive.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := b.archive.Get(r.Context(), key)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, "archived factura not found")
		return
	}
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
