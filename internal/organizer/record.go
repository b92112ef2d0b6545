package organizer

import (
	"context"
	"time"

	"fileorg/internal/history"
	"fileorg/internal/logging"
)

var timeNow = time.Now

func (r *run) beginHistory(ctx context.Context) {
	if r.store == nil {
		return
	}
	err := r.store.BeginRun(ctx, history.Run{
		ID:          r.id,
		Source:      r.job.SourceRoot,
		Destination: r.job.DestRoot,
		StartedAt:   timeNow(),
	})
	if err != nil {
		r.disableHistory(ctx, err)
		return
	}
	r.mu.Lock()
	r.recorded = true
	r.mu.Unlock()
}

// record stores one file outcome. Failures disable history for the rest of
// the run and never fail the file.
func (r *run) record(ctx context.Context, path string, out outcome) {
	r.mu.Lock()
	store := r.store
	r.mu.Unlock()
	if store == nil {
		return
	}
	tr := history.Transfer{
		RunID:    r.id,
		Source:   path,
		Target:   out.target,
		Kind:     out.class.Kind.String(),
		Category: out.class.Category.String(),
		Method:   string(out.class.Method),
		Size:     out.size,
		Status:   history.TransferSucceeded,
	}
	if out.record != nil {
		tr.Token = out.record.Token()
	}
	if out.err != nil {
		tr.Status = history.TransferFailed
		tr.Error = out.err.Error()
	}
	if err := store.RecordTransfer(context.WithoutCancel(ctx), tr); err != nil {
		r.disableHistory(ctx, err)
	}
}

func (r *run) finishHistory(ctx context.Context, state State, stats Stats, runErr error) {
	r.mu.Lock()
	store, recorded := r.store, r.recorded
	r.mu.Unlock()
	if store == nil || !recorded {
		return
	}
	entry := history.Run{
		ID:         r.id,
		State:      history.RunState(state),
		FinishedAt: timeNow(),
		Scanned:    stats.Scanned,
		Succeeded:  stats.Succeeded,
		Failed:     stats.Failed,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if err := store.FinishRun(context.WithoutCancel(ctx), entry); err != nil {
		logging.WithContext(ctx, r.logger).Warn("failed to record run outcome", logging.Error(err))
	}
}

func (r *run) disableHistory(ctx context.Context, err error) {
	r.mu.Lock()
	disabled := r.store != nil
	r.store = nil
	r.mu.Unlock()
	if !disabled {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run history disabled", "history_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "run continues without a history record"),
		logging.String(logging.FieldErrorHint, "check the state directory or disable organize.history"),
	)
}
