/*
Package api provides the HTTP routes of the service.

The routes map onto table level operations of a store.Store. Responses of
joined customer data are passed through the sanitizer, which removes null and
empty branches. Admin routes require a bearer token carrying the admin role,
see package access.

A backend is created with a Builder:

	router := mux.NewRouter()
	api.New(&api.Builder{
		Store:  st,
		Router: router,
		Issuer: issuer,
	})
*/
package api

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/gestion/core"
	"github.com/relabs-tech/gestion/core/access"
	"github.com/relabs-tech/gestion/core/archive"
	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/metrics"
	"github.com/relabs-tech/gestion/core/schema"
	"github.com/relabs-tech/gestion/core/store"
)

//go:embed schemas
var schemaFS embed.FS

// isoMillis is the timestamp format of the ping route
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Backend serves the REST api
type Backend struct {
	store     store.Store
	router    *mux.Router
	issuer    *access.Issuer
	archive   archive.Driver
	validator *schema.Validator
	now       func() time.Time
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Store is the database. This is mandatory.
	Store store.Store
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Issuer signs and verifies bearer tokens. This is mandatory.
	Issuer *access.Issuer
	// Notifier receives a notification for every modified row. This is optional.
	Notifier core.Notifier
	// Archive stores invoice snapshots. This is optional.
	Archive archive.Driver
	// Metrics adds request metrics and the /metrics route. This is optional.
	Metrics *metrics.Metrics
	// RequestTimeout bounds the time spent on one request. Zero means no timeout.
	RequestTimeout time.Duration
}

// New realizes the actual backend and adds its routes and middleware to the router
func New(bb *Builder) *Backend {
	if bb.Store == nil {
		panic("Store is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Issuer == nil {
		panic("Issuer is missing")
	}

	sub, err := fs.Sub(schemaFS, "schemas")
	if err != nil {
		panic(err)
	}
	validator, err := schema.NewValidatorFromFS(sub)
	if err != nil {
		panic(err)
	}
	for _, name := range requestSchemas {
		if !validator.HasSchema(schemaID(name)) {
			panic("request schema " + name + " is missing")
		}
	}

	b := &Backend{
		store:     store.WithNotifier(bb.Store, bb.Notifier),
		router:    bb.Router,
		issuer:    bb.Issuer,
		archive:   bb.Archive,
		validator: validator,
		now:       time.Now,
	}

	logger.AddRequestID(b.router)
	if bb.Metrics != nil {
		b.router.Use(bb.Metrics.Middleware)
		b.router.Handle("/metrics", bb.Metrics.Handler()).Methods(http.MethodOptions, http.MethodGet)
	}
	b.handleCORS()
	b.handleCompression()
	if bb.RequestTimeout > 0 {
		b.handleTimeout(bb.RequestTimeout)
	}

	b.handleRoutes()
	return b
}

// Router returns the router of the backend
func (b *Backend) Router() *mux.Router {
	return b.router
}

func (b *Backend) handleTimeout(timeout time.Duration) {
	b.router.Use(func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	})
}

// handleRoutes adds all routes. Public routes live on the router itself,
// token and admin routes on subrouters carrying the access middleware.
func (b *Backend) handleRoutes() {
	rlog := logger.Default()
	rlog.Debugln("api: handle routes")

	router := b.router
	authenticated := router.NewRoute().Subrouter()
	authenticated.Use(b.issuer.RequireToken())
	admin := router.NewRoute().Subrouter()
	admin.Use(b.issuer.RequireToken(), access.RequireRole("admin"))

	handle := func(r *mux.Router, path string, handler http.HandlerFunc, method string) {
		rlog.Debugf("  handle route: %s %s", path, method)
		r.HandleFunc(path, handler).Methods(http.MethodOptions, method)
	}

	handle(router, "/ping", b.ping, http.MethodGet)
	b.handleVersion(router)
	access.HandleLoginRoute(router, &access.Accounts{Store: b.store}, b.issuer)
	access.HandleAuthorizationRoute(authenticated)

	handle(admin, "/clientes", b.listClientes, http.MethodGet)
	handle(router, "/clientes/{nombre}", b.readCliente, http.MethodGet)
	handle(router, "/clientes", b.createCliente, http.MethodPost)
	handle(router, "/clientes/{id}", b.updateCliente, http.MethodPut)
	handle(router, "/clientes/id/{id}", b.deleteClienteByID, http.MethodDelete)
	handle(router, "/clientes/{nombre}", b.deleteClienteByName, http.MethodDelete)

	handle(router, "/clients", b.listClients, http.MethodGet)
	handle(router, "/clients", b.createClient, http.MethodPost)
	handle(router, "/contratos/{id}", b.createContrato, http.MethodPost)
	handle(router, "/clients_contratos", b.listClientsWithContratos, http.MethodGet)

	handle(router, "/customers", b.listCustomers, http.MethodGet)
	handle(router, "/customers/{id}", b.readCustomer, http.MethodGet)
	handle(router, "/lista_clientes", b.listCustomerDirectory, http.MethodGet)
	handle(router, "/lista_clientes", b.createCustomer, http.MethodPost)
	handle(admin, "/cliente/{id}", b.deleteCustomer, http.MethodDelete)

	handle(router, "/facturas/{cliente_id}", b.readFactura, http.MethodGet)
	handle(router, "/facturas/{cliente_id}/archivo", b.listArchivedFacturas, http.MethodGet)
	handle(router, "/facturas/{cliente_id}/archivo/{name}", b.readArchivedFactura, http.MethodGet)
	handle(router, "/facturas", b.createFactura, http.MethodPost)

	handle(router, "/agenda", b.listAgenda, http.MethodGet)
	handle(router, "/turno", b.createTurno, http.MethodPost)
	handle(router, "/turno/{id}", b.deleteTurno, http.MethodDelete)

	handle(router, "/extras/{cliente_id}", b.listExtras, http.MethodGet)
	handle(router, "/extras", b.createExtra, http.MethodPost)

	handle(admin, "/precios", b.listPrecios, http.MethodGet)
	handle(admin, "/precios", b.updatePrecios, http.MethodPut)
}

func (b *Backend) ping(w http.ResponseWriter, r *http.Request) {
	timestamp := b.now().UTC().Format(isoMillis)
	logger.FromContext(r.Context()).Debugf("[%s] ping", timestamp)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"type":      "ACTIVE",
		"message":   "Hola Servidor",
		"timestamp": timestamp,
	})
}
