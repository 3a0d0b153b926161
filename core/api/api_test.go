package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/relabs-tech/gestion/core"
	"github.com/relabs-tech/gestion/core/access"
	"github.com/relabs-tech/gestion/core/api"
	"github.com/relabs-tech/gestion/core/archive"
	"github.com/relabs-tech/gestion/core/client"
	"github.com/relabs-tech/gestion/core/metrics"
	"github.com/relabs-tech/gestion/core/store"
	"github.com/relabs-tech/gestion/core/store/memory"
)

type recordingNotifier struct {
	mutex         sync.Mutex
	notifications []store.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	var notification store.Notification
	if err := json.Unmarshal(payload, &notification); err != nil {
		return err
	}
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.notifications = append(n.notifications, notification)
	return nil
}

func (n *recordingNotifier) all() []store.Notification {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]store.Notification{}, n.notifications...)
}

type APISuite struct {
	suite.Suite
	db       *memory.Store
	notifier *recordingNotifier
	archive  archive.Driver
	router   *mux.Router
	client   client.Client
	user     client.Client
	admin    client.Client
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	ctx := context.Background()
	s.db = memory.New(api.Tables, api.ForeignKeys...)
	s.notifier = &recordingNotifier{}

	var err error
	s.archive, err = archive.New(ctx, archive.Configuration{
		DriverType:         archive.DriverTypeLocal,
		LocalConfiguration: &archive.LocalConfiguration{BasePath: s.T().TempDir()},
	})
	s.Require().NoError(err)

	accounts := &access.Accounts{Store: s.db}
	s.Require().NoError(accounts.EnsureAccounts(ctx,
		access.Account{Username: "ana", Password: "ana-secret", Rol: "admin"},
		access.Account{Username: "luis", Password: "luis-secret", Rol: "user"},
	))
	s.seed()

	issuer, err := access.NewIssuer("test-secret", time.Hour)
	s.Require().NoError(err)

	s.router = mux.NewRouter()
	api.New(&api.Builder{
		Store:    s.db,
		Router:   s.router,
		Issuer:   issuer,
		Notifier: s.notifier,
		Archive:  s.archive,
		Metrics:  metrics.New("gestion_test"),
	})

	s.client = client.NewWithRouter(s.router)
	adminToken, err := issuer.Sign("ana", "admin")
	s.Require().NoError(err)
	userToken, err := issuer.Sign("luis", "user")
	s.Require().NoError(err)
	s.admin = s.client.WithToken(adminToken)
	s.user = s.client.WithToken(userToken)
}

func (s *APISuite) seed() {
	ctx := context.Background()
	insert := func(table string, rows ...store.Row) {
		_, err := s.db.Insert(ctx, table, rows...)
		s.Require().NoError(err)
	}
	insert("ofertas", store.Row{"id": 1, "nombre": "Plan mensual", "descripcion": nil})
	insert("precios",
		store.Row{"id": 1, "oferta_id": 1, "nombre_producto": "cuota", "precio": 30},
		store.Row{"id": 2, "oferta_id": 1, "nombre_producto": "toalla", "precio": 2},
	)
	insert("customers",
		store.Row{"id": 1, "nombre": "Marta", "telefono": "600100200", "fecha": "2024-05-02", "oferta_id": 1, "notas": nil},
		store.Row{"id": 2, "nombre": "Pablo", "telefono": "600300400", "fecha": "2024-05-01", "oferta_id": nil, "notas": ""},
	)
	insert("extras", store.Row{"id": 1, "cliente_id": 1, "extra_id": 2, "cantidad": 3})
}

func (s *APISuite) TestPing() {
	var ping map[string]interface{}
	_, err := s.client.RawGet("/ping", &ping)
	s.Require().NoError(err)
	s.Equal(true, ping["success"])
	s.Equal("ACTIVE", ping["type"])
	s.Equal("Hola Servidor", ping["message"])
	_, err = time.Parse(time.RFC3339, ping["timestamp"].(string))
	s.NoError(err)
}

func (s *APISuite) TestVersion() {
	var version struct {
		Version string `json:"version"`
	}
	_, err := s.client.RawGet("/version", &version)
	s.Require().NoError(err)
	s.Equal("unset", version.Version)

	api.Version = "another version"
	defer func() { api.Version = "unset" }()

	_, err = s.client.RawGet("/version", &version)
	s.Require().NoError(err)
	s.Equal("another version", version.Version)
}

func (s *APISuite) TestLoginAndAuthorization() {
	var login struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	_, err := s.client.RawPost("/login", map[string]string{"username": "ana", "password": "ana-secret"}, &login)
	s.Require().NoError(err)
	s.NotEmpty(login.Token)
	s.Equal("ana", login.User["username"])
	s.NotContains(login.User, "password_hash")

	var auth access.Authorization
	status, err := s.client.WithToken(login.Token).RawGet("/authorization", &auth)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, status)
	s.Equal("ana", auth.Username)
	s.True(auth.HasRole("admin"))

	status, err = s.client.Do(http.MethodPost, "/login", map[string]string{"username": "ana", "password": "wrong"}, nil)
	s.NoError(err)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *APISuite) TestAdminRoutesNeedToken() {
	status, err := s.client.Do(http.MethodGet, "/clientes", nil, nil)
	s.NoError(err)
	s.Equal(http.StatusUnauthorized, status)

	var body map[string]string
	status, err = s.client.WithToken("not-a-token").Do(http.MethodGet, "/clientes", nil, &body)
	s.NoError(err)
	s.Equal(http.StatusForbidden, status)
	s.Equal("invalid token", body["error"])

	status, err = s.user.Do(http.MethodGet, "/precios", nil, &body)
	s.NoError(err)
	s.Equal(http.StatusForbidden, status)
	s.Equal("access denied", body["error"])

	_, err = s.admin.RawGet("/clientes", nil)
	s.NoError(err)
}

func (s *APISuite) TestClientes() {
	var created map[string]interface{}
	status, err := s.client.RawPost("/clientes", map[string]string{"nombre": "Lucia"}, &created)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)
	s.Equal("Lucia", created["nombre"])
	id := created["id"].(float64)

	var body map[string]string
	status, err = s.client.Do(http.MethodPost, "/clientes", map[string]string{"nombre": ""}, &body)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(`the field "nombre" is required`, body["error"])

	status, err = s.client.Do(http.MethodPost, "/clientes", []byte(`{"nombre":`), &body)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Contains(body["error"], "invalid request body")

	status, err = s.client.Do(http.MethodPut, "/clientes/1", []byte(`["Lucia"]`), &body)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Contains(body["error"], "invalid request body")

	var read map[string]interface{}
	_, err = s.client.RawGet("/clientes/Lucia", &read)
	s.Require().NoError(err)
	s.Equal(id, read["id"])

	status, err = s.client.Do(http.MethodGet, "/clientes/Nadie", nil, nil)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)

	var updated map[string]interface{}
	_, err = s.client.RawPut("/clientes/1", map[string]string{"nombre": "Lucía"}, &updated)
	s.Require().NoError(err)
	s.Equal("Lucía", updated["nombre"])

	status, err = s.client.Do(http.MethodPut, "/clientes/99", map[string]string{"nombre": "x"}, nil)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)

	var all []map[string]interface{}
	_, err = s.admin.RawGet("/clientes", &all)
	s.Require().NoError(err)
	s.Len(all, 1)

	var deleted map[string]interface{}
	_, err = s.client.RawDelete("/clientes/Lucía", &deleted)
	s.Require().NoError(err)
	s.Equal(float64(1), deleted["deleted"])

	_, err = s.client.RawPost("/clientes", map[string]string{"nombre": "Rosa"}, &created)
	s.Require().NoError(err)
	_, err = s.client.RawDelete("/clientes/id/2", &deleted)
	s.Require().NoError(err)
	s.Equal(float64(1), deleted["deleted"])

	_, err = s.admin.RawGet("/clientes", &all)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *APISuite) TestClientsWithContratos() {
	var client map[string]interface{}
	_, err := s.client.RawPost("/clients", map[string]interface{}{
		"nombre":     "Hotel Sol",
		"telefono":   "912000000",
		"fecha_cita": "2024-06-01",
		"ignored":    true,
	}, &client)
	s.Require().NoError(err)
	s.NotContains(client, "ignored")

	var contrato map[string]interface{}
	_, err = s.client.RawPost("/contratos/1", map[string]interface{}{
		"numero_contrato": "C-7",
		"tipo_servicio":   "limpieza",
		"estado":          "activo",
	}, &contrato)
	s.Require().NoError(err)
	s.Equal("1", contrato["client_id"])

	var clients []map[string]interface{}
	_, err = s.client.RawGet("/clients", &clients)
	s.Require().NoError(err)
	s.Len(clients, 1)

	_, err = s.client.RawGet("/clients_contratos", &clients)
	s.Require().NoError(err)
	s.Require().Len(clients, 1)
	contratos := clients[0]["contratos"].([]interface{})
	s.Require().Len(contratos, 1)
	s.Equal("C-7", contratos[0].(map[string]interface{})["numero_contrato"])
}

func (s *APISuite) TestCustomersAreSanitized() {
	var customer map[string]interface{}
	_, err := s.client.RawGet("/customers/1", &customer)
	s.Require().NoError(err)
	s.NotContains(customer, "notas")

	oferta := customer["ofertas"].(map[string]interface{})
	s.NotContains(oferta, "descripcion")
	s.Len(oferta["precios"], 2)
	extras := customer["extras"].([]interface{})
	s.Require().Len(extras, 1)
	precio := extras[0].(map[string]interface{})["precios"].(map[string]interface{})
	s.Equal("toalla", precio["nombre_producto"])

	_, err = s.client.RawGet("/customers/2", &customer)
	s.Require().NoError(err)
	s.NotContains(customer, "ofertas")
	s.NotContains(customer, "extras")
	s.Equal("", customer["notas"], "empty strings are values")

	status, err := s.client.Do(http.MethodGet, "/customers/99", nil, nil)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)

	var customers []map[string]interface{}
	_, err = s.client.RawGet("/customers", &customers)
	s.Require().NoError(err)
	s.Len(customers, 2)
}

func (s *APISuite) TestCustomersEmpty() {
	s.db = memory.New(api.Tables, api.ForeignKeys...)
	router := mux.NewRouter()
	issuer, err := access.NewIssuer("test-secret", time.Hour)
	s.Require().NoError(err)
	api.New(&api.Builder{Store: s.db, Router: router, Issuer: issuer})

	var raw []byte
	_, err = client.NewWithRouter(router).RawGet("/customers", &raw)
	s.Require().NoError(err)
	s.JSONEq(`{}`, string(raw))
}

func (s *APISuite) TestCustomerDirectory() {
	var directory []map[string]interface{}
	_, err := s.client.RawGet("/lista_clientes", &directory)
	s.Require().NoError(err)
	s.Require().Len(directory, 2)
	s.Equal("Pablo", directory[0]["nombre"], "ordered by fecha")
	s.NotContains(directory[0], "oferta_id")

	var created map[string]interface{}
	status, err := s.client.RawPost("/lista_clientes", map[string]interface{}{
		"nombre":    "Irene",
		"telefono":  600500600,
		"fecha":     "2024-04-30",
		"oferta_id": 1,
	}, &created)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)
	s.Equal(float64(3), created["id"])

	var envelope api.Envelope
	status, err = s.client.Do(http.MethodPost, "/lista_clientes", map[string]string{"nombre": "Sin telefono"}, &envelope)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.False(envelope.Success)
	s.Equal(api.ValidationError, envelope.Type)
	s.NotEmpty(envelope.Details)

	status, err = s.client.Do(http.MethodPost, "/lista_clientes", []byte("{not json"), &envelope)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(api.ValidationError, envelope.Type)

	_, err = s.client.RawGet("/lista_clientes", &directory)
	s.Require().NoError(err)
	s.Equal("Irene", directory[0]["nombre"])
}

func (s *APISuite) TestFacturas() {
	status, err := s.client.Do(http.MethodGet, "/facturas/1", nil, nil)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)

	var factura map[string]interface{}
	status, err = s.client.RawPost("/facturas", map[string]interface{}{"cliente_id": 1}, &factura)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)
	datos := factura["datos_factura"].(map[string]interface{})
	s.Equal("Marta", datos["nombre"])
	s.NotContains(datos, "notas")

	var read map[string]interface{}
	_, err = s.client.RawGet("/facturas/1", &read)
	s.Require().NoError(err)
	s.Equal(factura["datos_factura"], read["datos_factura"])
	s.NotContains(read, "id")

	var archived struct {
		ClienteID string   `json:"cliente_id"`
		Keys      []string `json:"keys"`
	}
	_, err = s.client.RawGet("/facturas/1/archivo", &archived)
	s.Require().NoError(err)
	s.Equal([]string{"facturas/1/1.json"}, archived.Keys)

	data, err := s.archive.Get(context.Background(), "facturas/1/1.json")
	s.Require().NoError(err)
	s.JSONEq(mustJSON(s.T(), datos), string(data))

	var snapshot []byte
	_, err = s.client.RawGet("/facturas/1/archivo/1.json", &snapshot)
	s.Require().NoError(err)
	s.JSONEq(string(data), string(snapshot))

	status, err = s.client.Do(http.MethodGet, "/facturas/1/archivo/7.json", nil, nil)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)

	status, err = s.client.Do(http.MethodPost, "/facturas", map[string]interface{}{"cliente_id": 42}, nil)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)

	status, err = s.client.Do(http.MethodPost, "/facturas", map[string]interface{}{}, nil)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
}

func (s *APISuite) TestAgenda() {
	var turno map[string]interface{}
	status, err := s.client.RawPost("/turno", map[string]interface{}{
		"nombre":   "Carmen",
		"telefono": "611222333",
		"fecha":    "2024-07-01T10:00:00Z",
	}, &turno)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)

	var envelope api.Envelope
	status, err = s.client.Do(http.MethodPost, "/turno", map[string]interface{}{"nombre": "Carmen"}, &envelope)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(api.ValidationError, envelope.Type)

	var agenda []map[string]interface{}
	_, err = s.client.RawGet("/agenda", &agenda)
	s.Require().NoError(err)
	s.Len(agenda, 1)

	_, err = s.client.RawDelete("/turno/1", &envelope)
	s.Require().NoError(err)
	s.True(envelope.Success)

	envelope = api.Envelope{}
	status, err = s.client.Do(http.MethodDelete, "/turno/1", nil, &envelope)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)
	s.False(envelope.Success)
	s.Equal(api.NotFoundError, envelope.Type)
}

func (s *APISuite) TestExtras() {
	var extra map[string]interface{}
	status, err := s.client.RawPost("/extras", map[string]interface{}{
		"cliente_id": 2,
		"extra_id":   1,
		"cantidad":   1.5,
	}, &extra)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)

	var envelope api.Envelope
	status, err = s.client.Do(http.MethodPost, "/extras", map[string]interface{}{"cliente_id": 2, "extra_id": 1, "cantidad": 0}, &envelope)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(api.ValidationError, envelope.Type)

	var extras []map[string]interface{}
	_, err = s.client.RawGet("/extras/2", &extras)
	s.Require().NoError(err)
	s.Require().Len(extras, 1)
	s.Equal(1.5, extras[0]["cantidad"])
}

func (s *APISuite) TestDeleteCustomerCascades() {
	_, err := s.client.RawPost("/facturas", map[string]interface{}{"cliente_id": 1}, nil)
	s.Require().NoError(err)
	keys, err := s.archive.List(context.Background(), "facturas/1/")
	s.Require().NoError(err)
	s.Len(keys, 1)

	var result map[string]interface{}
	_, err = s.admin.RawDelete("/cliente/1", &result)
	s.Require().NoError(err)
	s.Equal(true, result["success"])
	s.Equal(float64(1), result["extras"])
	s.Equal(float64(1), result["facturas"])

	ctx := context.Background()
	for _, table := range []string{"extras", "facturas"} {
		rows, err := s.db.Select(ctx, store.From(table).Eq("cliente_id", 1))
		s.Require().NoError(err)
		s.Empty(rows, table)
	}
	_, err = s.db.SelectOne(ctx, store.From("customers").Eq("id", 1))
	s.ErrorIs(err, store.ErrNotFound)

	keys, err = s.archive.List(ctx, "facturas/1/")
	s.Require().NoError(err)
	s.Empty(keys, "archived facturas are removed with the customer")

	var envelope api.Envelope
	status, err := s.admin.Do(http.MethodDelete, "/cliente/1", nil, &envelope)
	s.NoError(err)
	s.Equal(http.StatusNotFound, status)
	s.Equal(api.NotFoundError, envelope.Type)

	status, err = s.user.Do(http.MethodDelete, "/cliente/2", nil, nil)
	s.NoError(err)
	s.Equal(http.StatusForbidden, status)
}

func (s *APISuite) TestPrecios() {
	var precios []map[string]interface{}
	_, err := s.admin.RawGet("/precios", &precios)
	s.Require().NoError(err)
	s.Len(precios, 2)

	var result map[string]interface{}
	_, err = s.admin.RawPut("/precios", map[string]interface{}{
		"cambios": []interface{}{
			map[string]interface{}{"id": 1, "nombre_producto": "cuota", "precio": 35},
			map[string]interface{}{"id": 2, "nombre_producto": "otra cosa", "precio": 5},
			map[string]interface{}{"id": 2, "precio": 5},
			map[string]interface{}{"id": 2, "nombre_producto": "toalla"},
		},
	}, &result)
	s.Require().NoError(err)
	s.Equal(true, result["success"])
	s.Equal("1 records updated", result["message"])
	s.Equal(float64(1), result["updated"])
	s.Equal(float64(3), result["skipped"])

	_, err = s.admin.RawPut("/precios", map[string]interface{}{
		"cambios": map[string]interface{}{"id": 2, "nombre_producto": "toalla", "precio": 3},
	}, &result)
	s.Require().NoError(err)
	s.Equal(float64(1), result["updated"])

	row, err := s.db.SelectOne(context.Background(), store.From("precios").Eq("id", 1))
	s.Require().NoError(err)
	s.Equal("35", fmt.Sprint(row["precio"]))

	var envelope api.Envelope
	status, err := s.admin.Do(http.MethodPut, "/precios", map[string]interface{}{"cambios": []interface{}{}}, &envelope)
	s.NoError(err)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(api.ValidationError, envelope.Type)
}

func (s *APISuite) TestNotifications() {
	_, err := s.client.RawPost("/turno", map[string]interface{}{
		"nombre":   "Carmen",
		"telefono": "611222333",
		"fecha":    "2024-07-01",
	}, nil)
	s.Require().NoError(err)
	_, err = s.client.RawDelete("/turno/1", nil)
	s.Require().NoError(err)

	notifications := s.notifier.all()
	s.Require().Len(notifications, 2)
	s.Equal("agenda", notifications[0].Resource)
	s.Equal(core.OperationCreate, notifications[0].Operation)
	s.NotEmpty(notifications[0].RequestID)
	s.Equal(core.OperationDelete, notifications[1].Operation)
	s.Len(notifications[1].Rows, 1)
}

func (s *APISuite) TestCORSPreflight() {
	preflights := map[string]string{
		"/lista_clientes": http.MethodPost,
		"/login":          http.MethodPost,
		"/authorization":  http.MethodGet,
		"/metrics":        http.MethodGet,
		"/version":        http.MethodGet,
		"/precios":        http.MethodPut,
	}
	for path, method := range preflights {
		r := httptest.NewRequest(http.MethodOptions, path, nil)
		r.Header.Set("Origin", "https://example.com")
		r.Header.Set("Access-Control-Request-Method", method)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, r)
		s.Equal(http.StatusNoContent, rec.Code, path)
		s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func (s *APISuite) TestMetricsAndRequestID() {
	_, header, err := s.client.RawGetWithHeader("/ping", map[string]string{"X-Request-Id": "abc"}, nil)
	s.Require().NoError(err)
	s.Equal("abc", header.Get("X-Request-Id"))

	var raw []byte
	_, err = s.client.RawGet("/metrics", &raw)
	s.Require().NoError(err)
	s.Contains(string(raw), `gestion_test_api_response_durations_milliseconds_count{method="GET",route="/ping",status_code="200"} 1`)
}

// conflictingStore fails every insert like a database rejecting the row
type conflictingStore struct {
	store.Store
}

func (conflictingStore) Insert(ctx context.Context, table string, rows ...store.Row) (store.Rows, error) {
	return nil, &store.Error{Status: http.StatusConflict, Code: "23505", Message: "duplicate key value"}
}

func TestCreateDatabaseErrors(t *testing.T) {
	issuer, err := access.NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	router := mux.NewRouter()
	api.New(&api.Builder{Store: conflictingStore{memory.New(api.Tables, api.ForeignKeys...)}, Router: router, Issuer: issuer})
	c := client.NewWithRouter(router)

	bodies := map[string]interface{}{
		"/turno":          map[string]interface{}{"nombre": "Carmen", "telefono": "611222333", "fecha": "2024-07-01"},
		"/lista_clientes": map[string]interface{}{"nombre": "Irene", "telefono": "600500600", "fecha": "2024-04-30"},
		"/extras":         map[string]interface{}{"cliente_id": 1, "extra_id": 1, "cantidad": 1},
	}
	for path, body := range bodies {
		var envelope api.Envelope
		status, err := c.Do(http.MethodPost, path, body, &envelope)
		assert.NoError(t, err, path)
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, api.DatabaseError, envelope.Type, path)
		assert.Equal(t, "duplicate key value", envelope.DBError, path)
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestUnknownRoute(t *testing.T) {
	issuer, err := access.NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	router := mux.NewRouter()
	api.New(&api.Builder{Store: memory.New(api.Tables), Router: router, Issuer: issuer})

	status, err := client.NewWithRouter(router).Do(http.MethodGet, "/nothing", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}
