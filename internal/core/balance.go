package core

import "sort"

// WalletBalance is one wallet's derived net position.
type WalletBalance struct {
	Wallet  Wallet
	Balance Money
}

// Balances is the full balance summary for a set of wallets.
type Balances struct {
	Wallets []WalletBalance
	Total   Money
}

// BalanceSheet derives per-wallet balances and the aggregate total from
// the transaction history. It is a pure function of its inputs.
//
// Classification rules, fixed once for the whole codebase:
//
//	income:       credit source_id
//	expense:      debit  source_id
//	transfer_out: debit  source_id
//	transfer_in:  credit target_id
//
// A transfer_in row's source_id mirrors the payer for display only and
// never enters the sum. Transactions referencing wallets missing from
// the registry contribute to no balance.
func BalanceSheet(wallets []Wallet, txs []Transaction) Balances {
	cents := make(map[string]int64, len(wallets))
	for _, w := range wallets {
		cents[w.ID] = 0
	}

	for _, t := range txs {
		switch t.Kind {
		case Income:
			if _, ok := cents[t.SourceID]; ok {
				cents[t.SourceID] += t.Amount.Cents
			}
		case Expense:
			if _, ok := cents[t.SourceID]; ok {
				cents[t.SourceID] -= t.Amount.Cents
			}
		case TransferOut:
			if _, ok := cents[t.SourceID]; ok {
				cents[t.SourceID] -= t.Amount.Cents
			}
		case TransferIn:
			if _, ok := cents[t.TargetID]; ok {
				cents[t.TargetID] += t.Amount.Cents
			}
		}
	}

	out := Balances{Wallets: make([]WalletBalance, 0, len(wallets))}
	for _, w := range wallets {
		bal := cents[w.ID]
		out.Wallets = append(out.Wallets, WalletBalance{Wallet: w, Balance: Money{Cents: bal}})
		out.Total.Cents += bal
	}
	sort.Slice(out.Wallets, func(i, j int) bool {
		return out.Wallets[i].Wallet.Name < out.Wallets[j].Wallet.Name
	})
	return out
}

// Balance returns a single wallet's net position from the history.
func Balance(walletID string, txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		switch t.Kind {
		case Income:
			if t.SourceID == walletID {
				cents += t.Amount.Cents
			}
		case Expense:
			if t.SourceID == walletID {
				cents -= t.Amount.Cents
			}
		case TransferOut:
			if t.SourceID == walletID {
				cents -= t.Amount.Cents
			}
		case TransferIn:
			if t.TargetID == walletID {
				cents += t.Amount.Cents
			}
		}
	}
	return Money{Cents: cents}
}
