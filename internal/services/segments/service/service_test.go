package service_test

import (
	"context"
	"testing"

	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/store"
	"ridepulse/internal/platform/testkit"
	"ridepulse/internal/services/segments/domain"
	segrepo "ridepulse/internal/services/segments/repo"
	segsvc "ridepulse/internal/services/segments/service"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		AppName: "ridepulse-test",
		SQLite:  store.SQLiteConfig{Enabled: true, Path: testkit.TempDB(t)},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestUpsertIsIdempotentOnNaturalKey(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	repo := segrepo.NewSQLite().Bind(st.SQL)

	seg := domain.Segment{RouteID: "12", DirectionID: 0, FromStopID: "a", ToStopID: "b"}
	id1, err := repo.Upsert(ctx, seg)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	id2, err := repo.Upsert(ctx, seg)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("upsert minted a new id: %d vs %d", id1, id2)
	}
}

func TestLookupResolvesAfterLoad(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	repo := segrepo.NewSQLite().Bind(st.SQL)

	id, err := repo.Upsert(ctx, domain.Segment{RouteID: "12", DirectionID: 1, FromStopID: "a", ToStopID: "b"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	svc := segsvc.New(st.SQL, segrepo.NewSQLite())

	// before Load the cache is empty
	if _, err := svc.Lookup(ctx, domain.Key{RouteID: "12", DirectionID: 1, FromStopID: "a", ToStopID: "b"}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not_found before load, got %v", err)
	}

	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := svc.Lookup(ctx, domain.Key{RouteID: "12", DirectionID: 1, FromStopID: "a", ToStopID: "b"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != id {
		t.Fatalf("lookup returned %d, want %d", got, id)
	}
	if svc.Size() != 1 {
		t.Fatalf("expected cache size 1, got %d", svc.Size())
	}
}

func TestLookupDirectionMatters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	repo := segrepo.NewSQLite().Bind(st.SQL)

	if _, err := repo.Upsert(ctx, domain.Segment{RouteID: "12", DirectionID: 0, FromStopID: "a", ToStopID: "b"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	svc := segsvc.New(st.SQL, segrepo.NewSQLite())
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := svc.Lookup(ctx, domain.Key{RouteID: "12", DirectionID: 1, FromStopID: "a", ToStopID: "b"}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not_found for the reverse direction, got %v", err)
	}
}
