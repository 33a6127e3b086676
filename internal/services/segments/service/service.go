// Package service contains the segment registry workflows
package service

import (
	"context"
	"sync/atomic"

	perr "ridepulse/internal/platform/errors"

	"ridepulse/internal/modkit/repokit"
	"ridepulse/internal/services/segments/domain"
	"ridepulse/internal/services/segments/repo"
)

// Service defines the service contract for the registry
type Service interface {
	domain.RegistryPort
	// Load replaces the in-memory cache from the store
	Load(ctx context.Context) error
}

// Svc implements the Service interface
// the lookup table is an immutable map swapped atomically on Load,
// steady-state lookups never take a lock and never touch the store
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	cache atomic.Pointer[map[domain.Key]int64]
}

// New creates a new registry service with an empty cache
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("segments.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("segments.Service requires a non nil Repo binder")
	}
	s := &Svc{Repo: binder.Bind(db), binder: binder, db: db}
	empty := map[domain.Key]int64{}
	s.cache.Store(&empty)
	return s
}

// Load replaces the cache with the full registry contents
func (s *Svc) Load(ctx context.Context) error {
	all, err := s.Repo.All(ctx)
	if err != nil {
		return perr.FromStore(err, "load segment registry")
	}
	m := make(map[domain.Key]int64, len(all))
	for _, seg := range all {
		m[seg.Key()] = seg.SegmentID
	}
	s.cache.Store(&m)
	return nil
}

// Lookup resolves a natural tuple against the cached registry
func (s *Svc) Lookup(_ context.Context, key domain.Key) (int64, error) {
	m := s.cache.Load()
	if id, ok := (*m)[key]; ok {
		return id, nil
	}
	return 0, perr.NotFoundf("unknown segment %s/%d %s->%s",
		key.RouteID, key.DirectionID, key.FromStopID, key.ToStopID)
}

// Size reports the number of cached segments
func (s *Svc) Size() int { return len(*s.cache.Load()) }
