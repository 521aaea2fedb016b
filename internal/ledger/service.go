// Package ledger orchestrates the wallet registry, the transaction
// store and the balance engine behind one service facade.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flwkf/financeguard/internal/core"
	"github.com/flwkf/financeguard/internal/storage"
)

// Store is the persistence contract the service needs. Satisfied by
// *storage.SQLiteRepository.
type Store interface {
	CreateWallet(ctx context.Context, name string) (core.Wallet, error)
	ListWallets(ctx context.Context) ([]core.Wallet, error)
	DeleteWallet(ctx context.Context, id string) error

	InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	InsertTransferPair(ctx context.Context, out, in core.Transaction) error
	UpdateTransaction(ctx context.Context, id string, p storage.TransactionPatch) error
	DeleteTransaction(ctx context.Context, id string) error
	QueryTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
}

// Publisher pushes export notifications for newly persisted rows.
type Publisher interface {
	PublishLedgerSync(ctx context.Context, id string) error
}

// Service is the application-facing ledger API.
type Service struct {
	store     Store
	publisher Publisher
}

func NewService(store Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// AddWallet registers a new wallet.
func (s *Service) AddWallet(ctx context.Context, name string) (core.Wallet, error) {
	return s.store.CreateWallet(ctx, name)
}

// Wallets lists all wallets sorted by name.
func (s *Service) Wallets(ctx context.Context) ([]core.Wallet, error) {
	return s.store.ListWallets(ctx)
}

// RemoveWallet deletes a wallet under the strict reference-checked
// policy.
func (s *Service) RemoveWallet(ctx context.Context, id string) error {
	return s.store.DeleteWallet(ctx, id)
}

// RecordIncome appends an income record for the wallet.
func (s *Service) RecordIncome(ctx context.Context, walletID string, amount core.Money, note string, at time.Time) (core.Transaction, error) {
	return s.record(ctx, core.Income, walletID, amount, note, at)
}

// RecordExpense appends an expense record for the wallet.
func (s *Service) RecordExpense(ctx context.Context, walletID string, amount core.Money, note string, at time.Time) (core.Transaction, error) {
	return s.record(ctx, core.Expense, walletID, amount, note, at)
}

func (s *Service) record(ctx context.Context, kind core.Kind, walletID string, amount core.Money, note string, at time.Time) (core.Transaction, error) {
	t := core.Transaction{
		Kind:        kind,
		SourceID:    walletID,
		Amount:      amount,
		Description: note,
		CreatedAt:   at,
	}
	saved, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save %s: %w", kind, err)
	}
	s.publishSync(ctx, saved.ID)
	return saved, nil
}

// Transfer moves amount from one wallet to another as two linked rows
// sharing a generated transfer id, written as one unit. The outgoing
// half debits the payer through source_id, the incoming half credits
// the payee through target_id; both carry the same source/target pair
// so either reads correctly in history views.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount core.Money, note string, at time.Time) (core.Transaction, core.Transaction, error) {
	if fromID == toID {
		return core.Transaction{}, core.Transaction{}, core.ErrSameWallet
	}
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	transferID := uuid.NewString()
	out := core.Transaction{
		ID:          uuid.NewString(),
		Kind:        core.TransferOut,
		SourceID:    fromID,
		TargetID:    toID,
		TransferID:  transferID,
		Amount:      amount,
		Description: note,
		CreatedAt:   at,
	}
	in := core.Transaction{
		ID:          uuid.NewString(),
		Kind:        core.TransferIn,
		SourceID:    fromID,
		TargetID:    toID,
		TransferID:  transferID,
		Amount:      amount,
		Description: note,
		CreatedAt:   at,
	}

	if err := s.store.InsertTransferPair(ctx, out, in); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}

	s.publishSync(ctx, out.ID)
	s.publishSync(ctx, in.ID)
	return out, in, nil
}

// Update patches a single ledger record. A linked transfer counterpart
// is deliberately left alone.
func (s *Service) Update(ctx context.Context, id string, p storage.TransactionPatch) error {
	return s.store.UpdateTransaction(ctx, id, p)
}

// Delete removes a single ledger record.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

// Entry is a transaction with wallet names resolved for display.
type Entry struct {
	core.Transaction
	SourceName string
	TargetName string
}

// History returns filtered transactions with source and target wallet
// names resolved. Names of deleted wallets resolve to empty strings.
func (s *Service) History(ctx context.Context, f storage.TransactionFilter) ([]Entry, error) {
	txs, err := s.store.QueryTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	wallets, err := s.store.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load wallets: %w", err)
	}

	names := make(map[string]string, len(wallets))
	for _, w := range wallets {
		names[w.ID] = w.Name
	}

	out := make([]Entry, len(txs))
	for i, t := range txs {
		out[i] = Entry{
			Transaction: t,
			SourceName:  names[t.SourceID],
			TargetName:  names[t.TargetID],
		}
	}
	return out, nil
}

// Balances derives the per-wallet and total balances from the full
// transaction history.
func (s *Service) Balances(ctx context.Context) (core.Balances, error) {
	wallets, err := s.store.ListWallets(ctx)
	if err != nil {
		return core.Balances{}, fmt.Errorf("load wallets: %w", err)
	}
	txs, err := s.store.QueryTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return core.Balances{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.BalanceSheet(wallets, txs), nil
}

// Report aggregates the filtered transaction slice into period totals.
func (s *Service) Report(ctx context.Context, bucket core.Bucket, f storage.TransactionFilter) ([]core.PeriodTotal, error) {
	txs, err := s.store.QueryTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.Aggregate(txs, bucket)
}

func (s *Service) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	// Best effort: the row is already persisted locally, a lost export
	// notification is recovered by the worker's pending scan.
	if err := s.publisher.PublishLedgerSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
