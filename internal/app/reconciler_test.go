package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnhub/enrollment-service/internal/store"
)

type sweepRepoStub struct {
	store.Repository

	gotCutoff  time.Time
	sweepCount int64
	sweepErr   error
	calls      int
}

func (s *sweepRepoStub) MarkStalePendingPurchasesFailed(ctx context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.gotCutoff = cutoff
	return s.sweepCount, s.sweepErr
}

func TestSweepStalePurchases_UsesTTLCutoff(t *testing.T) {
	repo := &sweepRepoStub{sweepCount: 3}
	reconciler := NewReconciler(repo, "@hourly", 24*time.Hour)

	before := time.Now().Add(-24 * time.Hour)
	reconciler.SweepStalePurchases()
	after := time.Now().Add(-24 * time.Hour)

	if repo.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", repo.calls)
	}
	if repo.gotCutoff.Before(before) || repo.gotCutoff.After(after) {
		t.Fatalf("expected cutoff ~24h ago, got %s", repo.gotCutoff)
	}
}

func TestSweepStalePurchases_ToleratesRepositoryError(t *testing.T) {
	repo := &sweepRepoStub{sweepErr: errors.New("connection reset")}
	reconciler := NewReconciler(repo, "@hourly", time.Hour)

	// Must not panic; the error is only logged so the next tick still runs.
	reconciler.SweepStalePurchases()

	if repo.calls != 1 {
		t.Fatalf("expected the sweep to reach the repository, got %d calls", repo.calls)
	}
}
