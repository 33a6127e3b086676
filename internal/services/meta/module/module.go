// Package module wires service metadata into the API using modkit
package module

import (
	"net/http"
	"time"

	modkit "ridepulse/internal/modkit"
	"ridepulse/internal/modkit/httpkit"
	metahttp "ridepulse/internal/services/meta/http"
	metarepo "ridepulse/internal/services/meta/repo"
	metasvc "ridepulse/internal/services/meta/service"
	"ridepulse/internal/services/tuning"
)

// Ports are the dependencies meta needs at construction
type Ports struct {
	Params tuning.Params
	// Started marks process boot for uptime reporting
	Started time.Time
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

	svc metasvc.Service
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta")}, opts...)...)

	ports, _ := b.Ports.(Ports)
	svc := metasvc.New(deps.DB, metarepo.NewSQLite(), ports.Params, ports.Started, deps.Log)

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
		metahttp.Register(r, m.svc)
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

// Ports exposes the metadata service port
func (m *Module) Ports() any { return m.svc }
