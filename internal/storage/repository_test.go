package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/flwkf/financeguard/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateWallet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.CreateWallet(ctx, "  Mandiri  ")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if w.ID == "" {
		t.Fatal("expected generated id")
	}
	if w.Name != "Mandiri" {
		t.Fatalf("expected trimmed name, got %q", w.Name)
	}

	if _, err := repo.CreateWallet(ctx, ""); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestCreateWalletDuplicateName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateWallet(ctx, "Cash"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := repo.CreateWallet(ctx, "Cash"); !errors.Is(err, core.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// Case-sensitive exact match: different casing is a new wallet.
	if _, err := repo.CreateWallet(ctx, "cash"); err != nil {
		t.Fatalf("different casing should be allowed: %v", err)
	}

	wallets, err := repo.ListWallets(ctx)
	if err != nil {
		t.Fatalf("list wallets: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(wallets))
	}
}

func TestListWalletsOrderedAndIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"ShopeePay", "Cash", "Mandiri"} {
		if _, err := repo.CreateWallet(ctx, name); err != nil {
			t.Fatalf("create wallet %s: %v", name, err)
		}
	}

	first, err := repo.ListWallets(ctx)
	if err != nil {
		t.Fatalf("list wallets: %v", err)
	}
	if first[0].Name != "Cash" || first[1].Name != "Mandiri" || first[2].Name != "ShopeePay" {
		t.Fatalf("expected name-ascending order, got %v", first)
	}

	second, err := repo.ListWallets(ctx)
	if err != nil {
		t.Fatalf("list wallets again: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("listing not idempotent at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestDeleteWalletBlockedByReference(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.CreateWallet(ctx, "Cash")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Kind: core.Expense, SourceID: w.ID, Amount: core.Money{Cents: 100},
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}

	if err := repo.DeleteWallet(ctx, w.ID); !errors.Is(err, core.ErrWalletReferenced) {
		t.Fatalf("expected ErrWalletReferenced, got %v", err)
	}
	if _, err := repo.GetWallet(ctx, w.ID); err != nil {
		t.Fatalf("wallet should survive blocked delete: %v", err)
	}

	// Removing the reference first makes deletion possible.
	if err := repo.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := repo.DeleteWallet(ctx, w.ID); err != nil {
		t.Fatalf("delete wallet after unreference: %v", err)
	}
	if _, err := repo.GetWallet(ctx, w.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteWalletBlockedByTargetReference(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateWallet(ctx, "A")
	b, _ := repo.CreateWallet(ctx, "B")
	out := core.Transaction{Kind: core.TransferOut, SourceID: a.ID, TargetID: b.ID, TransferID: "t1", ID: "o1", Amount: core.Money{Cents: 100}, CreatedAt: time.Now()}
	in := core.Transaction{Kind: core.TransferIn, SourceID: a.ID, TargetID: b.ID, TransferID: "t1", ID: "i1", Amount: core.Money{Cents: 100}, CreatedAt: time.Now()}
	if err := repo.InsertTransferPair(ctx, out, in); err != nil {
		t.Fatalf("insert transfer pair: %v", err)
	}

	if err := repo.DeleteWallet(ctx, b.ID); !errors.Is(err, core.ErrWalletReferenced) {
		t.Fatalf("target-side reference should block deletion, got %v", err)
	}
}

func TestDeleteWalletNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.DeleteWallet(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertTransactionDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, _ := repo.CreateWallet(ctx, "Cash")
	before := time.Now().UTC().Add(-time.Second)
	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Kind: core.Income, SourceID: w.ID, Amount: core.Money{Cents: 500},
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected generated id")
	}
	if tx.CreatedAt.Before(before) {
		t.Fatalf("expected created_at defaulted to now, got %v", tx.CreatedAt)
	}

	got, err := repo.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Kind != core.Income || got.Amount.Cents != 500 || got.SourceID != w.ID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestInsertTransactionRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		Kind: core.Income, SourceID: "w", Amount: core.Money{Cents: 0},
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestInsertTransferPairAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateWallet(ctx, "A")
	b, _ := repo.CreateWallet(ctx, "B")
	now := time.Now().UTC()
	out := core.Transaction{ID: "dup", Kind: core.TransferOut, SourceID: a.ID, TargetID: b.ID, TransferID: "t1", Amount: core.Money{Cents: 100}, CreatedAt: now}
	// Same primary key on the second insert forces the pair write to fail.
	in := core.Transaction{ID: "dup", Kind: core.TransferIn, SourceID: a.ID, TargetID: b.ID, TransferID: "t1", Amount: core.Money{Cents: 100}, CreatedAt: now}

	err := repo.InsertTransferPair(ctx, out, in)
	if !errors.Is(err, core.ErrPartialTransfer) {
		t.Fatalf("expected ErrPartialTransfer, got %v", err)
	}

	// The rollback must leave no orphaned half.
	txs, err := repo.QueryTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("query transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty ledger after failed pair, got %d rows", len(txs))
	}
}

func TestUpdateTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, _ := repo.CreateWallet(ctx, "Cash")
	tx, _ := repo.InsertTransaction(ctx, core.Transaction{
		Kind: core.Expense, SourceID: w.ID, Amount: core.Money{Cents: 700}, Description: "old",
	})

	amount := int64(900)
	desc := "new"
	if err := repo.UpdateTransaction(ctx, tx.ID, TransactionPatch{
		AmountCents: &amount,
		Description: &desc,
	}); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	got, _ := repo.GetTransaction(ctx, tx.ID)
	if got.Amount.Cents != 900 || got.Description != "new" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Kind != core.Expense {
		t.Fatalf("untouched field changed: %+v", got)
	}

	if err := repo.UpdateTransaction(ctx, "missing", TransactionPatch{Description: &desc}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bad := int64(-1)
	if err := repo.UpdateTransaction(ctx, tx.ID, TransactionPatch{AmountCents: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDeleteTransactionMissingIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.DeleteTransaction(context.Background(), "missing"); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestQueryTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateWallet(ctx, "A")
	b, _ := repo.CreateWallet(ctx, "B")

	day1 := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	mustInsert := func(t2 core.Transaction) core.Transaction {
		t.Helper()
		got, err := repo.InsertTransaction(ctx, t2)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		return got
	}
	mustInsert(core.Transaction{Kind: core.Income, SourceID: a.ID, Amount: core.Money{Cents: 100}, CreatedAt: day1})
	mustInsert(core.Transaction{Kind: core.Expense, SourceID: a.ID, Amount: core.Money{Cents: 200}, CreatedAt: day2})
	mustInsert(core.Transaction{Kind: core.Expense, SourceID: b.ID, Amount: core.Money{Cents: 300}, CreatedAt: day3})

	// Default ordering: most recent first.
	all, err := repo.QueryTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || !all[0].CreatedAt.After(all[2].CreatedAt) {
		t.Fatalf("expected 3 rows newest first, got %+v", all)
	}

	// Kind filter.
	expenses, _ := repo.QueryTransactions(ctx, TransactionFilter{Kind: core.Expense})
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}

	// Wallet filter matches source or target.
	forA, _ := repo.QueryTransactions(ctx, TransactionFilter{WalletID: a.ID})
	if len(forA) != 2 {
		t.Fatalf("expected 2 rows for wallet A, got %d", len(forA))
	}

	// Inclusive date range.
	ranged, _ := repo.QueryTransactions(ctx, TransactionFilter{From: day1, To: day2})
	if len(ranged) != 2 {
		t.Fatalf("expected 2 rows in [day1,day2], got %d", len(ranged))
	}

	// Ascending on request.
	asc, _ := repo.QueryTransactions(ctx, TransactionFilter{Ascending: true})
	if !asc[0].CreatedAt.Before(asc[2].CreatedAt) {
		t.Fatalf("expected ascending order, got %+v", asc)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, _ := repo.CreateWallet(ctx, "Cash")
	tx, _ := repo.InsertTransaction(ctx, core.Transaction{
		Kind: core.Income, SourceID: w.ID, Amount: core.Money{Cents: 100},
	})

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending sync: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tx.ID {
		t.Fatalf("expected the new row pending, got %+v", pending)
	}

	if err := repo.MarkSynced(ctx, tx.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, _ = repo.PendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected empty pending queue, got %d", len(pending))
	}

	tx2, _ := repo.InsertTransaction(ctx, core.Transaction{
		Kind: core.Expense, SourceID: w.ID, Amount: core.Money{Cents: 50},
	})
	if err := repo.MarkSyncError(ctx, tx2.ID); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}
	pending, _ = repo.PendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("errored rows must leave the pending queue, got %d", len(pending))
	}
}
