package http

import (
	"net/http/pprof"
)

// MountProfiler mounts net/http/pprof under prefix when enabled
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	r.Route(prefix+"/pprof", func(pr Router) {
		pr.Get("/", pprof.Index)
		pr.Get("/cmdline", pprof.Cmdline)
		pr.Get("/profile", pprof.Profile)
		pr.Get("/symbol", pprof.Symbol)
		pr.Get("/trace", pprof.Trace)
		pr.Handle("/goroutine", pprof.Handler("goroutine"))
		pr.Handle("/heap", pprof.Handler("heap"))
		pr.Handle("/allocs", pprof.Handler("allocs"))
		pr.Handle("/block", pprof.Handler("block"))
		pr.Handle("/mutex", pprof.Handler("mutex"))
		pr.Handle("/threadcreate", pprof.Handler("threadcreate"))
	})
}
