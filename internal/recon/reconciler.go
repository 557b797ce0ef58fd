package recon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jswalia/karigar/internal/ledger"
)

// Reconciler periodically retries recalculations that failed after their
// primary mutation committed, so stale owner summaries converge without the
// client resubmitting anything.
type Reconciler struct {
	svc       *ledger.Service
	scheduler *cron.Cron
	schedule  string
	timeout   time.Duration
	entryID   cron.EntryID
}

func New(svc *ledger.Service, schedule string) *Reconciler {
	return &Reconciler{
		svc:       svc,
		scheduler: cron.New(),
		schedule:  schedule,
		timeout:   30 * time.Second,
	}
}

func (r *Reconciler) Start() error {
	var err error

	r.entryID, err = r.scheduler.AddFunc(r.schedule, r.sweep)
	if err != nil {
		return fmt.Errorf("scheduling reconciliation: %w", err)
	}

	r.scheduler.Start()
	slog.Info("recalculation reconciler started", "schedule", r.schedule)

	return nil
}

// Stop halts the schedule; a sweep already in flight finishes.
func (r *Reconciler) Stop() {
	r.scheduler.Stop()
}

func (r *Reconciler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	owners, err := r.svc.PendingOwners(ctx)
	if err != nil {
		slog.Error("listing pending recalculations", "error", err)
		return
	}

	if len(owners) == 0 {
		return
	}

	slog.Info("retrying stale summaries", "owners", len(owners))

	for _, ownerID := range owners {
		if err := r.svc.Recalculate(ctx, ownerID); err != nil {
			// Still failing; the owner stays queued for the next sweep.
			slog.Warn("recalculation retry failed", "owner_id", ownerID, "error", err)
			continue
		}

		slog.Info("stale summary reconciled", "owner_id", ownerID)
	}
}
