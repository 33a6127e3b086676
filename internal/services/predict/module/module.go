// Package module wires the ETA query path into the API using modkit
package module

import (
	"net/http"

	modkit "ridepulse/internal/modkit"
	"ridepulse/internal/modkit/httpkit"
	predicthttp "ridepulse/internal/services/predict/http"
	predictrepo "ridepulse/internal/services/predict/repo"
	predictsvc "ridepulse/internal/services/predict/service"
	segdomain "ridepulse/internal/services/segments/domain"
	"ridepulse/internal/services/tuning"
)

// Ports are the cross module dependencies predict needs at construction
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

	svc predictsvc.Service
}

// New constructs a predict module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("predict")}, opts...)...)

	ports, ok := b.Ports.(Ports)
	if !ok || ports.Registry == nil {
		panic("predict module requires a segment registry port")
	}

	svc := predictsvc.New(deps.DB, predictrepo.NewSQLite(), ports.Registry, ports.Params)

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
		predicthttp.Register(r, m.svc)
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

// Ports exposes the estimator service port
func (m *Module) Ports() any { return m.svc }
