package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"liner/internal/config"
	"liner/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartRun begins a new pipeline run for tests using the provided store.
func StartRun(t testing.TB, store *ledger.Store, dryRun bool) *ledger.Run {
	t.Helper()

	run, err := store.StartRun(context.Background(), uuid.NewString(), dryRun, time.Now())
	if err != nil {
		t.Fatalf("store.StartRun: %v", err)
	}
	return run
}
