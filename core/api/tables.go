package api

import (
	"github.com/relabs-tech/gestion/core/access"
	"github.com/relabs-tech/gestion/core/store"
)

// the tables used by the routes
const (
	tableClientes   = "clientes"
	tableClients    = "clients"
	tableContratos  = "contratos"
	tableCustomers  = "customers"
	tableOfertas    = "ofertas"
	tablePrecios    = "precios"
	tableExtras     = "extras"
	tableFacturas   = "facturas"
	tableAgenda     = "agenda"
	customerDetails = "*,ofertas(*,precios(*)),extras(*,precios(*))"
)

// Tables lists all tables the service reads or writes
var Tables = []string{
	access.UsersTable, tableClientes, tableClients, tableContratos, tableCustomers,
	tableOfertas, tablePrecios, tableExtras, tableFacturas, tableAgenda,
}

// ForeignKeys are the relationships between Tables which the routes embed.
// They mirror the foreign keys of the database and serve stores which cannot
// discover them, like the in-memory store.
var ForeignKeys = []store.ForeignKey{
	{Table: tableContratos, Column: "client_id", RefTable: tableClients, RefColumn: "id"},
	{Table: tableCustomers, Column: "oferta_id", RefTable: tableOfertas, RefColumn: "id"},
	{Table: tablePrecios, Column: "oferta_id", RefTable: tableOfertas, RefColumn: "id"},
	{Table: tableExtras, Column: "cliente_id", RefTable: tableCustomers, RefColumn: "id"},
	{Table: tableExtras, Column: "extra_id", RefTable: tablePrecios, RefColumn: "id"},
	{Table: tableFacturas, Column: "cliente_id", RefTable: tableCustomers, RefColumn: "id"},
}
