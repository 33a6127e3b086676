// Package module wires ride ingestion into the API using modkit
package module

import (
	"net/http"

	modkit "ridepulse/internal/modkit"
	"ridepulse/internal/modkit/httpkit"
	ingesthttp "ridepulse/internal/services/ingest/http"
	ingestrepo "ridepulse/internal/services/ingest/repo"
	ingestsvc "ridepulse/internal/services/ingest/service"
	segdomain "ridepulse/internal/services/segments/domain"
	"ridepulse/internal/services/tuning"
)

// Ports are the cross module dependencies ingest needs at construction
type Ports struct {
	Registry segdomain.RegistryPort
	Params   tuning.Params
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc ingestsvc.Service
}

// New constructs an ingest module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("ingest")}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok || ports.Registry == nil {
		panic("ingest module requires a segment registry port")
	}

	repo := ingestrepo.NewSQLite()
	svc := ingestsvc.New(deps.DB, repo, ports.Registry, ports.Params, deps.Log)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ingesthttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	mount := func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	}
	if m.prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(m.prefix, mount)
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }

// Ports exposes the ingestion service port
func (m *Module) Ports() any { return m.svc }
