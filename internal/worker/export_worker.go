// Package worker moves persisted ledger rows to the backup export
// destination.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flwkf/financeguard/internal/amqp"
	"github.com/flwkf/financeguard/internal/core"
	"github.com/flwkf/financeguard/internal/export"
	"github.com/flwkf/financeguard/internal/ledger"
	"github.com/flwkf/financeguard/internal/storage"
)

// ExportWorker exports transactions from SQLite to the configured
// backup destination.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.RowAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender export.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one export notification from AMQP.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// The row was deleted before the worker got to it. Drop the
		// message, there is nothing left to export.
		slog.WarnContext(ctx, "Transaction gone before export, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.exportRow(ctx, t)
}

// ProcessPending exports any rows still marked pending. This is the
// fallback path for lost AMQP messages.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, t := range pending {
		if err := w.exportRow(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", t.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck drains a larger pending batch once at worker startup to
// recover from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...", "count", len(pending))

	exported := 0
	failed := 0
	for _, t := range pending {
		if err := w.exportRow(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup", "id", t.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportRow(ctx context.Context, t core.Transaction) error {
	wallets, err := w.storage.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}
	names := make(map[string]string, len(wallets))
	for _, wl := range wallets {
		names[wl.ID] = wl.Name
	}

	entry := ledger.Entry{
		Transaction: t,
		SourceName:  names[t.SourceID],
		TargetName:  names[t.TargetID],
	}

	ref, err := w.appender.Append(ctx, entry)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to export destination: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID); err != nil {
		// The export itself worked, don't fail the message.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", t.ID,
		"export_ref", ref,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)
	return nil
}
