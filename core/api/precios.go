package api

import (
	"fmt"
	"net/http"

	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/store"
)

func (b *Backend) listPrecios(w http.ResponseWriter, r *http.Request) {
	rows, err := b.store.Select(r.Context(), store.From(tablePrecios).Order("oferta_id", true))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// updatePrecios applies a batch of price changes. Every change names the row
// by id and nombre_producto; the remaining members are the new values.
// Changes without both keys or without values are skipped.
func (b *Backend) updatePrecios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rlog := logger.FromContext(ctx)

	body, err := b.readBody(r, "precios")
	if err != nil {
		writeEnvelope(w, statusFor(err), ValidationError, "cambios must be an object or a non-empty array of objects", err)
		return
	}

	var cambios []interface{}
	switch c := body["cambios"].(type) {
	case []interface{}:
		cambios = c
	case map[string]interface{}:
		cambios = []interface{}{c}
	}

	updated, skipped := 0, 0
	for i, c := range cambios {
		cambio, _ := c.(map[string]interface{})
		id, nombre := cambio["id"], cambio["nombre_producto"]
		values := store.Row(cambio).Without("id", "nombre_producto")
		if id == nil || nombre == nil || len(values) == 0 {
			rlog.Infof("skipping price change %d: id, nombre_producto and a value are required", i)
			skipped++
			continue
		}
		rows, err := b.store.Update(ctx, tablePrecios, values, store.Eq("id", id), store.Eq("nombre_producto", nombre))
		if err != nil {
			rlog.WithError(err).Errorf("cannot apply price change %d", i)
			writeEnvelope(w, statusFor(err), DatabaseError, fmt.Sprintf("error applying change %d", i), err)
			return
		}
		if len(rows) == 0 {
			skipped++
			continue
		}
		updated++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%d records updated", updated),
		"updated": updated,
		"skipped": skipped,
	})
}
