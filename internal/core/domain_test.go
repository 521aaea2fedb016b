package core

import (
	"errors"
	"testing"
)

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{Income, Expense, TransferOut, TransferIn} {
		if !k.Valid() {
			t.Fatalf("%s should be valid", k)
		}
	}
	if Kind("withdrawal").Valid() {
		t.Fatal("unknown kind should be invalid")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatal("expected error for zero")
	}
	if err := (Money{Cents: -50}).Validate(); err == nil {
		t.Fatal("expected error for negative")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Mandiri"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, name := range []string{"", "   ", "\t"} {
		if err := ValidateName(name); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("name %q: expected ErrEmptyName, got %v", name, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := []Transaction{
		{Kind: Income, SourceID: "w1", Amount: Money{Cents: 100}},
		{Kind: Expense, SourceID: "w1", Amount: Money{Cents: 100}, Description: "groceries"},
		{Kind: TransferOut, SourceID: "w1", TargetID: "w2", TransferID: "tr1", Amount: Money{Cents: 100}},
		{Kind: TransferIn, SourceID: "w1", TargetID: "w2", TransferID: "tr1", Amount: Money{Cents: 100}},
	}
	for i, tx := range good {
		if err := tx.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Kind: "loan", SourceID: "w1", Amount: Money{Cents: 1}}, ErrInvalidKind},
		{Transaction{Kind: Income, SourceID: "w1", Amount: Money{Cents: 0}}, ErrInvalidAmount},
		{Transaction{Kind: TransferOut, SourceID: "w1", TargetID: "w1", TransferID: "tr1", Amount: Money{Cents: 1}}, ErrSameWallet},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}

	// Structural problems without a dedicated sentinel.
	structural := []Transaction{
		{Kind: Income, Amount: Money{Cents: 1}},                                              // no source
		{Kind: Income, SourceID: "w1", TargetID: "w2", Amount: Money{Cents: 1}},              // target on non-transfer
		{Kind: Income, SourceID: "w1", TransferID: "tr1", Amount: Money{Cents: 1}},           // transfer id on non-transfer
		{Kind: TransferIn, SourceID: "w1", TargetID: "w2", Amount: Money{Cents: 1}},          // no transfer id
		{Kind: TransferOut, SourceID: "w1", TransferID: "tr1", Amount: Money{Cents: 1}},      // no target
	}
	for i, tx := range structural {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
