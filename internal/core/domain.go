package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income      Kind = "income"
	Expense     Kind = "expense"
	TransferOut Kind = "transfer_out"
	TransferIn  Kind = "transfer_in"
)

type (
	// Kind tags a transaction with one of the four ledger record kinds.
	Kind string

	Money struct {
		Cents int64
	}

	// Wallet is a named money-holding bucket.
	Wallet struct {
		ID        string
		Name      string
		CreatedAt time.Time
	}

	// Transaction is a single ledger record. Which fields are required
	// depends on Kind: income and expense affect SourceID only, transfer
	// halves carry SourceID, TargetID and the shared TransferID.
	Transaction struct {
		ID          string
		Kind        Kind
		SourceID    string
		TargetID    string
		TransferID  string
		Amount      Money
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrEmptyName        = errors.New("empty wallet name")
	ErrDuplicateName    = errors.New("duplicate wallet name")
	ErrWalletReferenced = errors.New("wallet referenced by transactions")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrSameWallet       = errors.New("transfer source equals target")
	ErrNotFound         = errors.New("not found")
	ErrPartialTransfer  = errors.New("partial transfer write")
	ErrInvalidKind      = errors.New("invalid transaction kind")
)

func (k Kind) Valid() bool {
	switch k {
	case Income, Expense, TransferOut, TransferIn:
		return true
	}
	return false
}

// IsTransfer reports whether the kind is one half of a transfer pair.
func (k Kind) IsTransfer() bool {
	return k == TransferOut || k == TransferIn
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateName checks a wallet name at registry boundaries.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Validate checks the required-field set for the transaction's kind.
// Construction-time checking keeps loosely shaped rows out of the
// ledger entirely.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.SourceID) == "" {
		return errors.New("missing source wallet")
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Kind.IsTransfer() {
		if strings.TrimSpace(t.TargetID) == "" {
			return errors.New("missing target wallet")
		}
		if t.SourceID == t.TargetID {
			return ErrSameWallet
		}
		if strings.TrimSpace(t.TransferID) == "" {
			return errors.New("missing transfer id")
		}
		return nil
	}
	if t.TargetID != "" {
		return errors.New("target wallet only valid on transfers")
	}
	if t.TransferID != "" {
		return errors.New("transfer id only valid on transfers")
	}
	return nil
}
