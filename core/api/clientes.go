package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/gestion/core/schema"
	"github.com/relabs-tech/gestion/core/store"
)

func (b *Backend) listClientes(w http.ResponseWriter, r *http.Request) {
	rows, err := b.store.Select(r.Context(), store.From(tableClientes))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) readCliente(w http.ResponseWriter, r *http.Request) {
	nombre := mux.Vars(r)["nombre"]
	row, err := b.store.SelectOne(r.Context(), store.From(tableClientes).Eq("nombre", nombre))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cliente not found")
		return
	}
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (b *Backend) createCliente(w http.ResponseWriter, r *http.Request) {
	body, err := b.readBody(r, "cliente")
	if err != nil {
		writeClienteBodyError(r.Context(), w, err)
		return
	}
	rows, err := b.store.Insert(r.Context(), tableClientes, pick(body, "nombre"))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}

// writeClienteBodyError names the required field for schema violations and
// reports all other body errors as they are
func writeClienteBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, `the field "nombre" is required`)
		return
	}
	writeFailure(ctx, w, err)
}

func (b *Backend) updateCliente(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	body, err := b.readBody(r, "cliente")
	if err != nil {
		writeClienteBodyError(r.Context(), w, err)
		return
	}
	rows, err := b.store.Update(r.Context(), tableClientes, pick(body, "nombre"), store.Eq("id", id))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "cliente not found")
		return
	}
	writeJSON(w, http.StatusOK, rows[0])
}

func (b *Backend) deleteClienteByName(w http.ResponseWriter, r *http.Request) {
	nombre := mux.Vars(r)["nombre"]
	rows, err := b.store.Delete(r.Context(), tableClientes, store.Eq("nombre", nombre))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("cliente %s deleted", nombre),
		"deleted": len(rows),
	})
}

func (b *Backend) deleteClienteByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rows, err := b.store.Delete(r.Context(), tableClientes, store.Eq("id", id))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("cliente with id %s deleted", id),
		"deleted": len(rows),
	})
}

func (b *Backend) listClients(w http.ResponseWriter, r *http.Request) {
	rows, err := b.store.Select(r.Context(), store.From(tableClients))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) createClient(w http.ResponseWriter, r *http.Request) {
	body, err := b.readBody(r, "client")
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	rows, err := b.store.Insert(r.Context(), tableClients, pick(body, "nombre", "telefono", "fecha_cita"))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}

func (b *Backend) createContrato(w http.ResponseWriter, r *http.Request) {
	body, err := b.readBody(r, "contrato")
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	row := pick(body, "numero_contrato", "tipo_servicio", "estado")
	row["client_id"] = mux.Vars(r)["id"]
	rows, err := b.store.Insert(r.Context(), tableContratos, row)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}

func (b *Backend) listClientsWithContratos(w http.ResponseWriter, r *http.Request) {
	rows, err := b.store.Select(r.Context(), store.From(tableClients).Select("*,contratos(*)"))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
