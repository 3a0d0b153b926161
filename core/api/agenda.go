package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/store"
)

func (b *Backend) listAgenda(w http.ResponseWriter, r *http.Request) {
	rows, err := b.store.Select(r.Context(), store.From(tableAgenda))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (b *Backend) createTurno(w http.ResponseWriter, r *http.Request) {
	body, err := b.readBody(r, "turno")
	if err != nil {
		writeEnvelope(w, statusFor(err), ValidationError, "nombre, telefono and fecha are required", err)
		return
	}
	rows, err := b.store.Insert(r.Context(), tableAgenda, pick(body, "nombre", "telefono", "fecha"))
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("cannot create turno")
		writeEnvelope(w, http.StatusBadRequest, DatabaseError, "error creating turno", err)
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}

func (b *Backend) deleteTurno(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	_, err := b.store.SelectOne(ctx, store.From(tableAgenda).Select("id").Eq("id", id))
	if errors.Is(err, store.ErrNotFound) {
		writeEnvelope(w, http.StatusNotFound, NotFoundError, fmt.Sprintf("turno %s not found", id), nil)
		return
	}
	if err == nil {
		_, err = b.store.Delete(ctx, tableAgenda, store.Eq("id", id))
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("cannot delete turno")
		writeEnvelope(w, http.StatusInternalServerError, DatabaseError, "error deleting turno", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: fmt.Sprintf("turno %s deleted", id)})
}
