package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// StatusChangeWorker processes resource status change jobs. For now it logs
// the transition; future versions will dispatch to webhooks or notification
// systems.
type StatusChangeWorker struct {
	river.WorkerDefaults[StatusChangedArgs]
}

// Work processes a single status change job.
func (w *StatusChangeWorker) Work(ctx context.Context, job *river.Job[StatusChangedArgs]) error {
	slog.InfoContext(ctx, "resource status changed",
		"resource_id", job.Args.ResourceID,
		"tenant_key", job.Args.TenantKey,
		"resource_type", job.Args.ResourceType,
		"from", job.Args.FromStatus,
		"to", job.Args.ToStatus,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// WalletMovementWorker processes wallet movement jobs.
type WalletMovementWorker struct {
	river.WorkerDefaults[WalletMovedArgs]
}

// Work processes a single wallet movement job.
func (w *WalletMovementWorker) Work(ctx context.Context, job *river.Job[WalletMovedArgs]) error {
	slog.InfoContext(ctx, "wallet balance moved",
		"wallet_id", job.Args.WalletID,
		"tenant_key", job.Args.TenantKey,
		"owner_id", job.Args.OwnerID,
		"direction", job.Args.Direction,
		"amount", job.Args.Amount,
		"balance", job.Args.Balance,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// PurgeWorker processes tenant purge completion jobs.
type PurgeWorker struct {
	river.WorkerDefaults[TenantPurgedArgs]
}

// Work processes a single purge completion job.
func (w *PurgeWorker) Work(ctx context.Context, job *river.Job[TenantPurgedArgs]) error {
	var total int64
	for _, n := range job.Args.Deleted {
		total += n
	}
	slog.InfoContext(ctx, "tenant data purged",
		"tenant_key", job.Args.TenantKey,
		"rows_deleted", total,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
