package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gestion/core/store"
)

var testForeignKeys = []store.ForeignKey{
	{Table: "customers", Column: "oferta_id", RefTable: "ofertas", RefColumn: "id"},
	{Table: "extras", Column: "cliente_id", RefTable: "customers", RefColumn: "id"},
}

func newStatement() *statement {
	return &statement{schema: "public", foreignKeys: testForeignKeys}
}

func TestSelectQuery_Columns(t *testing.T) {
	st := newStatement()
	sql, err := st.selectQuery(store.From("customers").Select("id,nombre").Eq("id", "7").Order("fecha", true).WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, `SELECT jsonb_build_object('id', t0."id", 'nombre', t0."nombre") FROM "public"."customers" t0`+
		` WHERE t0."id" = $1 ORDER BY t0."fecha" ASC NULLS LAST LIMIT 2;`, sql)
	assert.Equal(t, []interface{}{"7"}, st.parameters)
}

func TestSelectQuery_ManyToOne(t *testing.T) {
	st := newStatement()
	sql, err := st.selectQuery(store.From("customers").Select("*,ofertas(*)"))
	require.NoError(t, err)
	assert.Equal(t, `SELECT to_jsonb(t0) || jsonb_build_object('ofertas', (SELECT to_jsonb(t1) FROM "public"."ofertas" t1`+
		` WHERE t1."id" = t0."oferta_id" LIMIT 1)) FROM "public"."customers" t0;`, sql)
	assert.Empty(t, st.parameters)
}

func TestSelectQuery_OneToMany(t *testing.T) {
	st := newStatement()
	sql, err := st.selectQuery(store.From("customers").Select("nombre,extras(cantidad)").Eq("nombre", nil).Order("id", false))
	require.NoError(t, err)
	assert.Equal(t, `SELECT jsonb_build_object('nombre', t0."nombre", 'extras', (SELECT coalesce(jsonb_agg(jsonb_build_object('cantidad', t1."cantidad")), '[]'::jsonb)`+
		` FROM "public"."extras" t1 WHERE t1."cliente_id" = t0."id")) FROM "public"."customers" t0 WHERE t0."nombre" IS NULL`+
		` ORDER BY t0."id" DESC NULLS FIRST;`, sql)
}

func TestSelectQuery_UnknownRelation(t *testing.T) {
	_, err := newStatement().selectQuery(store.From("customers").Select("*,agenda(*)"))
	assert.ErrorIs(t, err, store.ErrBadSelect)
}

func TestInsertQuery(t *testing.T) {
	st := newStatement()
	sql, err := st.insertQuery("clientes", store.Row{"telefono": "1", "nombre": "Eddy"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "public"."clientes" AS t0 ("nombre","telefono") VALUES ($1,$2) RETURNING to_jsonb(t0);`, sql)
	assert.Equal(t, []interface{}{"Eddy", "1"}, st.parameters)

	st = newStatement()
	sql, err = st.insertQuery("facturas", store.Row{"datos_factura": map[string]interface{}{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "public"."facturas" AS t0 ("datos_factura") VALUES ($1) RETURNING to_jsonb(t0);`, sql)
	assert.Equal(t, []interface{}{`{"a":1}`}, st.parameters)

	sql, err = newStatement().insertQuery("agenda", store.Row{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "public"."agenda" AS t0 DEFAULT VALUES RETURNING to_jsonb(t0);`, sql)

	_, err = newStatement().insertQuery("agenda", store.Row{`bad"column`: 1})
	assert.ErrorIs(t, err, store.ErrBadSelect)
}

func TestUpdateQuery(t *testing.T) {
	st := newStatement()
	sql, err := st.updateQuery("precios", store.Row{"precio": 12}, []store.Filter{store.Eq("id", 1), store.Eq("nombre_producto", "cuota")})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "public"."precios" AS t0 SET "precio" = $1 WHERE t0."id" = $2 AND t0."nombre_producto" = $3 RETURNING to_jsonb(t0);`, sql)
	assert.Equal(t, []interface{}{12, 1, "cuota"}, st.parameters)

	_, err = newStatement().updateQuery("precios", store.Row{"precio": 12}, nil)
	assert.ErrorIs(t, err, store.ErrUnfiltered)
	_, err = newStatement().updateQuery("precios", store.Row{}, []store.Filter{store.Eq("id", 1)})
	assert.ErrorIs(t, err, store.ErrBadSelect)
}

func TestDeleteQuery(t *testing.T) {
	st := newStatement()
	sql, err := st.deleteQuery("agenda", []store.Filter{store.Eq("id", "3")})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "public"."agenda" AS t0 WHERE t0."id" = $1 RETURNING to_jsonb(t0);`, sql)

	_, err = newStatement().deleteQuery("agenda", nil)
	assert.ErrorIs(t, err, store.ErrUnfiltered)
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, 404, statusForCode("42P01"))
	assert.Equal(t, 409, statusForCode("23505"))
	assert.Equal(t, 400, statusForCode("23502"))
	assert.Equal(t, 400, statusForCode("22P02"))
	assert.Equal(t, 500, statusForCode("XX000"))
}
