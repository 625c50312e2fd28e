/**
 * @description
 * Cron-driven reconciliation sweep. Checkout sessions expire on the provider
 * side without a webhook we act on, so purchases can sit in `pending`
 * indefinitely when the buyer abandons checkout. The sweep fails every
 * pending purchase older than the configured TTL.
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/learnhub/enrollment-service/internal/store"
	"github.com/robfig/cron/v3"
)

// Reconciler owns the scheduled sweep over stale pending purchases.
type Reconciler struct {
	repo       store.Repository
	cron       *cron.Cron
	schedule   string
	pendingTTL time.Duration
}

// NewReconciler creates the sweep runner. schedule is a cron expression
// (e.g. "@hourly"); pendingTTL is how long a purchase may stay pending.
func NewReconciler(repo store.Repository, schedule string, pendingTTL time.Duration) *Reconciler {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Reconciler{
		repo:       repo,
		cron:       c,
		schedule:   schedule,
		pendingTTL: pendingTTL,
	}
}

// Start registers the sweep job and starts the scheduler.
func (r *Reconciler) Start() {
	if _, err := r.cron.AddFunc(r.schedule, r.SweepStalePurchases); err != nil {
		log.Printf("level=error component=reconciler msg=\"failed to schedule stale purchase sweep\" schedule=%s err=%v", r.schedule, err)
		return
	}
	log.Printf("level=info component=reconciler msg=\"scheduled stale purchase sweep\" schedule=%s pending_ttl=%s", r.schedule, r.pendingTTL)
	r.cron.Start()
}

// Stop gracefully stops the scheduler, returning the cron stop context.
func (r *Reconciler) Stop() context.Context {
	return r.cron.Stop()
}

// SweepStalePurchases fails every purchase that has been pending longer than
// the TTL. Runs on the cron schedule but is callable directly.
func (r *Reconciler) SweepStalePurchases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-r.pendingTTL)
	count, err := r.repo.MarkStalePendingPurchasesFailed(ctx, cutoff)
	if err != nil {
		log.Printf("level=error component=reconciler msg=\"stale purchase sweep failed\" err=%v", err)
		return
	}
	if count > 0 {
		log.Printf("level=info component=reconciler msg=\"stale purchases failed\" count=%d cutoff=%s", count, cutoff.UTC().Format(time.RFC3339))
	}
}
