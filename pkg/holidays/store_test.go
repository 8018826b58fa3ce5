package holidays

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "holidays.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	list := []Holiday{
		{Date: time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), Name: "Independence Day", LocalName: "Independence Day", CountryCode: "US"},
	}
	cachedAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	if err := store.Upsert(ctx, "tenant-a", "US", 2026, list, cachedAt); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, gotAt, err := store.Load(ctx, "tenant-a", "US", 2026)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !gotAt.Equal(cachedAt) {
		t.Errorf("cached_at = %v, want %v", gotAt, cachedAt)
	}
	if len(got) != 1 || got[0].Name != "Independence Day" || !got[0].Date.Equal(list[0].Date) {
		t.Errorf("Load returned %+v, want %+v", got, list)
	}
}

func TestSQLiteStoreMissingRow(t *testing.T) {
	store := openTestStore(t)

	list, cachedAt, err := store.Load(context.Background(), "tenant-a", "FR", 2026)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if list != nil || !cachedAt.IsZero() {
		t.Errorf("missing row should report nil list and zero cachedAt, got %v at %v", list, cachedAt)
	}
}

func TestSQLiteStoreUpsertOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := []Holiday{{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Name: "New Year's Day", CountryCode: "DE"}}
	second := []Holiday{
		{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Name: "New Year's Day", CountryCode: "DE"},
		{Date: time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC), Name: "German Unity Day", CountryCode: "DE"},
	}

	t0 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := store.Upsert(ctx, "default", "DE", 2026, first, t0); err != nil {
		t.Fatal(err)
	}
	t1 := t0.Add(10 * 24 * time.Hour)
	if err := store.Upsert(ctx, "default", "DE", 2026, second, t1); err != nil {
		t.Fatal(err)
	}

	got, gotAt, err := store.Load(ctx, "default", "DE", 2026)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("after overwrite Load returned %d holidays, want 2", len(got))
	}
	if !gotAt.Equal(t1) {
		t.Errorf("after overwrite cached_at = %v, want %v", gotAt, t1)
	}
}

func TestSQLiteStoreScopeIsolation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	list := []Holiday{{Date: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC), Name: "Bastille Day", CountryCode: "FR"}}
	if err := store.Upsert(ctx, "tenant-a", "FR", 2026, list, time.Now()); err != nil {
		t.Fatal(err)
	}

	got, _, err := store.Load(ctx, "tenant-b", "FR", 2026)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("tenant-b read tenant-a's cache entry: %+v", got)
	}
}

func TestClientServesFromStoreAcrossRestarts(t *testing.T) {
	source := &holidaySource{body: sampleBody}
	srv := httptest.NewServer(source.handler())
	defer srv.Close()

	store := openTestStore(t)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	first := NewWithLogger(discardLogger(),
		WithBaseURL(srv.URL), WithStore(store), WithClock(clock))
	if _, err := first.Holidays(context.Background(), "US", 2026); err != nil {
		t.Fatal(err)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("initial fetch issued %d calls, want 1", got)
	}

	// A fresh client with an empty in-memory cache but the same store must
	// not touch the network while the stored entry is fresh.
	second := NewWithLogger(discardLogger(),
		WithBaseURL(srv.URL), WithStore(store), WithClock(clock))
	list, err := second.Holidays(context.Background(), "US", 2026)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("store-served lookup returned %d holidays, want 2", len(list))
	}
	if got := source.calls.Load(); got != 1 {
		t.Errorf("fresh client re-fetched despite fresh store entry: %d calls", got)
	}

	// Past the freshness window the store entry is ignored.
	now = now.Add(8 * 24 * time.Hour)
	if _, err := second.Holidays(context.Background(), "US", 2026); err != nil {
		t.Fatal(err)
	}
	if got := source.calls.Load(); got != 2 {
		t.Errorf("stale store entry should trigger a refetch: %d calls, want 2", got)
	}
}
