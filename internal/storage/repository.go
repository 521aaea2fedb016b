package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flwkf/financeguard/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the wallet registry and ledger store over a
// single SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateWallet adds a wallet with a fresh id. The name is trimmed and
// must be unique with case-sensitive exact matching.
func (r *SQLiteRepository) CreateWallet(ctx context.Context, name string) (core.Wallet, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateName(name); err != nil {
		return core.Wallet{}, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallets WHERE name = ?`, name).Scan(&count); err != nil {
		return core.Wallet{}, fmt.Errorf("check wallet name: %w", err)
	}
	if count > 0 {
		return core.Wallet{}, core.ErrDuplicateName
	}

	w := core.Wallet{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, name, created_at) VALUES (?, ?, ?)`,
		w.ID, w.Name, w.CreatedAt); err != nil {
		return core.Wallet{}, fmt.Errorf("insert wallet: %w", err)
	}

	slog.InfoContext(ctx, "Wallet created", "id", w.ID, "name", w.Name)
	return w, nil
}

// ListWallets returns all wallets ordered by name ascending.
func (r *SQLiteRepository) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM wallets ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var out []core.Wallet
	for rows.Next() {
		var w core.Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetWallet fetches a single wallet by id.
func (r *SQLiteRepository) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	var w core.Wallet
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM wallets WHERE id = ?`, id).
		Scan(&w.ID, &w.Name, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, core.ErrNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// DeleteWallet removes a wallet under the strict policy: deletion is
// blocked while any transaction references the wallet as source or
// target.
func (r *SQLiteRepository) DeleteWallet(ctx context.Context, id string) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE source_id = ? OR target_id = ?`,
		id, id).Scan(&refs); err != nil {
		return fmt.Errorf("count wallet references: %w", err)
	}
	if refs > 0 {
		return core.ErrWalletReferenced
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Wallet deleted", "id", id)
	return nil
}

// InsertTransaction persists a single validated transaction. A zero id
// gets a fresh uuid, a zero created_at defaults to the current time.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := insertTransactionTx(ctx, r.db, t); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)
	return t, nil
}

// InsertTransferPair writes both halves of a transfer in one database
// transaction so a failed second insert can never leave an orphaned
// half behind.
func (r *SQLiteRepository) InsertTransferPair(ctx context.Context, out, in core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}

	if err := insertTransactionTx(ctx, tx, out); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %w", core.ErrPartialTransfer, err)
	}
	if err := insertTransactionTx(ctx, tx, in); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %w", core.ErrPartialTransfer, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer pair saved",
		"transfer_id", out.TransferID,
		"out_id", out.ID,
		"in_id", in.ID,
		"amount_cents", out.Amount.Cents)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransactionTx(ctx context.Context, db execer, t core.Transaction) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO transactions (id, kind, source_id, target_id, transfer_id, amount_cents, description, created_at, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		t.ID, string(t.Kind), t.SourceID, t.TargetID, t.TransferID,
		t.Amount.Cents, t.Description, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// TransactionPatch carries the editable fields of a ledger record.
// Nil members are left untouched.
type TransactionPatch struct {
	Kind        *core.Kind
	SourceID    *string
	TargetID    *string
	AmountCents *int64
	Description *string
}

// UpdateTransaction applies a patch to a single record. It never
// touches a linked transfer counterpart, so editing one half of a pair
// can desynchronize the ledger; callers own that risk.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p TransactionPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if p.Kind != nil {
		if !p.Kind.Valid() {
			return core.ErrInvalidKind
		}
		sets = append(sets, "kind = ?")
		args = append(args, string(*p.Kind))
	}
	if p.SourceID != nil {
		sets = append(sets, "source_id = ?")
		args = append(args, *p.SourceID)
	}
	if p.TargetID != nil {
		sets = append(sets, "target_id = ?")
		args = append(args, *p.TargetID)
	}
	if p.AmountCents != nil {
		if *p.AmountCents <= 0 {
			return core.ErrInvalidAmount
		}
		sets = append(sets, "amount_cents = ?")
		args = append(args, *p.AmountCents)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if len(sets) == 0 {
		// Nothing to change, but the target must still exist.
		_, err := r.GetTransaction(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return nil
}

// DeleteTransaction removes a single record. Deleting an absent id is a
// no-op, matching "delete what exists" semantics.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.InfoContext(ctx, "Transaction deleted", "id", id)
	}
	return nil
}

// GetTransaction fetches a single record by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, source_id, target_id, transfer_id, amount_cents, description, created_at
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// TransactionFilter narrows QueryTransactions. Zero values mean "no
// constraint". WalletID matches source or target.
type TransactionFilter struct {
	WalletID  string
	Kind      core.Kind
	From      time.Time
	To        time.Time
	Ascending bool
}

// QueryTransactions returns records matching the filter, ordered by
// created_at descending unless Ascending is set.
func (r *SQLiteRepository) QueryTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.WalletID != "" {
		where = append(where, "(source_id = ? OR target_id = ?)")
		args = append(args, f.WalletID, f.WalletID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, f.To)
	}

	query := `SELECT id, kind, source_id, target_id, transfer_id, amount_cents, description, created_at FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Ascending {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		kind string
	)
	err := row.Scan(&t.ID, &kind, &t.SourceID, &t.TargetID, &t.TransferID,
		&t.Amount.Cents, &t.Description, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	return t, nil
}

// PendingSync returns transactions that have not been exported yet,
// oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, source_id, target_id, transfer_id, amount_cents, description, created_at
		 FROM transactions WHERE sync_status = 'pending'
		 ORDER BY created_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having export errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
