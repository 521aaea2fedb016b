package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flwkf/financeguard/internal/core"
	"github.com/flwkf/financeguard/internal/log"
	"github.com/flwkf/financeguard/internal/storage"
)

const dateLayout = "2006-01-02"

type walletJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type transactionJSON struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	SourceID    string    `json:"source_id"`
	SourceName  string    `json:"source_name,omitempty"`
	TargetID    string    `json:"target_id,omitempty"`
	TargetName  string    `json:"target_name,omitempty"`
	TransferID  string    `json:"transfer_id,omitempty"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toWalletJSON(w core.Wallet) walletJSON {
	return walletJSON{ID: w.ID, Name: w.Name, CreatedAt: w.CreatedAt}
}

func toTransactionJSON(t core.Transaction, sourceName, targetName string) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Kind:        string(t.Kind),
		SourceID:    t.SourceID,
		SourceName:  sourceName,
		TargetID:    t.TargetID,
		TargetName:  targetName,
		TransferID:  t.TransferID,
		Amount:      t.Amount.String(),
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the ledger error taxonomy onto HTTP status codes. All
// of these are recoverable at the UI boundary.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateName), errors.Is(err, core.ErrWalletReferenced):
		status = http.StatusConflict
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrSameWallet),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidBucket):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.svc.Wallets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]walletJSON, len(wallets))
	for i, wl := range wallets {
		out[i] = toWalletJSON(wl)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	wallet, err := s.svc.AddWallet(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toWalletJSON(wallet))
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveWallet(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind     string `json:"kind"`
		WalletID string `json:"wallet_id"`
		Amount   string `json:"amount"`
		Note     string `json:"note"`
		Date     string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	at, err := parseDate(req.Date)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	var tx core.Transaction
	switch core.Kind(req.Kind) {
	case core.Income:
		tx, err = s.svc.RecordIncome(r.Context(), req.WalletID, amount, req.Note, at)
	case core.Expense:
		tx, err = s.svc.RecordExpense(r.Context(), req.WalletID, amount, req.Note, at)
	default:
		// Transfer halves are never created directly; they only come
		// from the transfer endpoint.
		s.writeError(w, r, core.ErrInvalidKind)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTransactionJSON(tx, "", ""))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	entries, err := s.svc.History(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transactionJSON, len(entries))
	for i, e := range entries {
		out[i] = toTransactionJSON(e.Transaction, e.SourceName, e.TargetName)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind     *string `json:"kind"`
		SourceID *string `json:"source_id"`
		TargetID *string `json:"target_id"`
		Amount   *string `json:"amount"`
		Note     *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	patch := storage.TransactionPatch{
		SourceID:    req.SourceID,
		TargetID:    req.TargetID,
		Description: req.Note,
	}
	if req.Kind != nil {
		k := core.Kind(*req.Kind)
		patch.Kind = &k
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.AmountCents = &amount.Cents
	}

	if err := s.svc.Update(r.Context(), r.PathValue("id"), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromID string `json:"from_id"`
		ToID   string `json:"to_id"`
		Amount string `json:"amount"`
		Note   string `json:"note"`
		Date   string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	at, err := parseDate(req.Date)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	out, in, err := s.svc.Transfer(r.Context(), req.FromID, req.ToID, amount, req.Note, at)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"transfer_id": out.TransferID,
		"out":         toTransactionJSON(out, "", ""),
		"in":          toTransactionJSON(in, "", ""),
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.svc.Balances(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	type line struct {
		WalletID string `json:"wallet_id"`
		Wallet   string `json:"wallet"`
		Balance  string `json:"balance"`
		Cents    int64  `json:"balance_cents"`
	}
	lines := make([]line, len(balances.Wallets))
	for i, wb := range balances.Wallets {
		lines[i] = line{
			WalletID: wb.Wallet.ID,
			Wallet:   wb.Wallet.Name,
			Balance:  wb.Balance.String(),
			Cents:    wb.Balance.Cents,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"wallets":     lines,
		"total":       balances.Total.String(),
		"total_cents": balances.Total.Cents,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bucket := core.Bucket(r.URL.Query().Get("bucket"))
	if bucket == "" {
		bucket = core.BucketDay
	}

	totals, err := s.svc.Report(r.Context(), bucket, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	type point struct {
		PeriodStart string `json:"period_start"`
		Total       string `json:"total"`
		Cents       int64  `json:"total_cents"`
	}
	points := make([]point, len(totals))
	for i, pt := range totals {
		points[i] = point{
			PeriodStart: pt.PeriodStart.Format(dateLayout),
			Total:       pt.Total.String(),
			Cents:       pt.Total.Cents,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"bucket":  string(bucket),
		"periods": points,
	})
}

func parseFilter(r *http.Request) (storage.TransactionFilter, error) {
	q := r.URL.Query()
	f := storage.TransactionFilter{
		WalletID:  q.Get("wallet"),
		Kind:      core.Kind(q.Get("kind")),
		Ascending: q.Get("order") == "asc",
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return f, errors.New("invalid kind filter")
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, errors.New("invalid from date, want YYYY-MM-DD")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, errors.New("invalid to date, want YYYY-MM-DD")
		}
		// Make the range inclusive of the whole end day.
		f.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
