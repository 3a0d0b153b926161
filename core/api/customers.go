package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/sanitize"
	"github.com/relabs-tech/gestion/core/store"
)

// listCustomers returns all customers with their offer, prices and extras.
// Null and empty members are removed from the response.
func (b *Backend) listCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := b.store.Select(r.Context(), store.From(tableCustomers).Select(customerDetails))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize.CleanOrEmpty(rows))
}

func (b *Backend) readCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	row, err := b.store.SelectOne(r.Context(), store.From(tableCustomers).Select(customerDetails).Eq("id", id))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize.CleanOrEmpty(row))
}

func (b *Backend) listCustomerDirectory(w http.ResponseWriter, r *http.Request) {
	query := store.From(tableCustomers).Select("id,nombre,telefono,fecha").Order("fecha", true)
	rows, err := b.store.Select(r.Context(), query)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) createCustomer(w http.ResponseWriter, r *http.Request) {
	body, err := b.readBody(r, "lista_cliente")
	if err != nil {
		writeEnvelope(w, statusFor(err), ValidationError, "nombre, telefono and fecha are required", err)
		return
	}
	rows, err := b.store.Insert(r.Context(), tableCustomers, pick(body, "nombre", "telefono", "fecha", "oferta_id"))
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("cannot create customer")
		writeEnvelope(w, http.StatusBadRequest, DatabaseError, "error creating customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}

// deleteCustomer removes a customer together with its extras and invoices.
// Dependent rows go first so that foreign keys hold at every step.
func (b *Backend) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rlog := logger.FromContext(ctx)
	id := mux.Vars(r)["id"]

	_, err := b.store.SelectOne(ctx, store.From(tableCustomers).Select("id").Eq("id", id))
	if errors.Is(err, store.ErrNotFound) {
		writeEnvelope(w, http.StatusNotFound, NotFoundError, fmt.Sprintf("customer %s not found", id), nil)
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("cannot read customer")
		writeEnvelope(w, http.StatusInternalServerError, DatabaseError, "error reading customer", err)
		return
	}

	extras, err := b.store.Delete(ctx, tableExtras, store.Eq("cliente_id", id))
	if err != nil {
		rlog.WithError(err).Errorln("cannot delete extras")
		writeEnvelope(w, http.StatusInternalServerError, DatabaseError, "error deleting extras", err)
		return
	}
	facturas, err := b.store.Delete(ctx, tableFacturas, store.Eq("cliente_id", id))
	if err != nil {
		rlog.WithError(err).Errorln("cannot delete facturas")
		writeEnvelope(w, http.StatusInternalServerError, DatabaseError, "error deleting facturas", err)
		return
	}
	if _, err = b.store.Delete(ctx, tableCustomers, store.Eq("id", id)); err != nil {
		rlog.WithError(err).Errorln("cannot delete customer")
		writeEnvelope(w, http.StatusInternalServerError, DatabaseError, "error deleting customer", err)
		return
	}

	b.unarchiveFacturas(ctx, id)

	rlog.Infof("deleted customer %s with %d extras and %d facturas", id, len(extras), len(facturas))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("customer %s deleted", id),
		"extras":   len(extras),
		"facturas": len(facturas),
	})
}

func (b *Backend) listExtras(w http.ResponseWriter, r *http.Request) {
	clienteID := mux.Vars(r)["cliente_id"]
	rows, err := b.store.Select(r.Context(), store.From(tableExtras).Eq("cliente_id", clienteID))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) createExtra(w http.ResponseWriter, r *http.Request) {
	body, err := b.readBody(r, "extra")
	if err != nil {
		writeEnvelope(w, statusFor(err), ValidationError, "cliente_id, extra_id and cantidad are required", err)
		return
	}
	rows, err := b.store.Insert(r.Context(), tableExtras, pick(body, "cliente_id", "extra_id", "cantidad"))
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("cannot create extra")
		writeEnvelope(w, http.StatusBadRequest, DatabaseError, "error creating extra", err)
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}
