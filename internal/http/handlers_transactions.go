package http

import (
	"net/http"
	"time"

	"carteira/internal/core"
	"carteira/internal/gateway"
)

type moneyJSON struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func moneyOut(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, Formatted: core.FormatBRL(m)}
}

type transactionJSON struct {
	ID          string           `json:"id"`
	Amount      moneyJSON        `json:"amount"`
	Kind        string           `json:"kind"`
	Category    *categoryJSON    `json:"category,omitempty"`
	Subcategory *subcategoryJSON `json:"subcategory,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	OccurredOn  string           `json:"occurred_on"`
	CreatedAt   time.Time        `json:"created_at"`
}

const dateLayout = "2006-01-02"

func transactionOut(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Amount:      moneyOut(t.Amount),
		Kind:        string(t.Kind),
		Title:       t.Title,
		Description: t.Description,
		OccurredOn:  t.OccurredOn.Format(dateLayout),
		CreatedAt:   t.CreatedAt,
	}
	if t.Category != nil {
		out.Category = &categoryJSON{ID: t.Category.ID, Name: t.Category.Name, Color: t.Category.Color}
	}
	if t.Subcategory != nil {
		out.Subcategory = &subcategoryJSON{ID: t.Subcategory.ID, CategoryID: t.Subcategory.CategoryID, Name: t.Subcategory.Name}
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	txs, err := sess.Ledger.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not load transactions")
		return
	}
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionOut(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// transactionRequest carries the masked amount input: a digit string
// where the digits are cents.
type transactionRequest struct {
	Amount        string `json:"amount"`
	Kind          string `json:"kind"`
	CategoryID    string `json:"category_id"`
	SubcategoryID string `json:"subcategory_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	OccurredOn    string `json:"occurred_on"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t := core.Transaction{
		Amount:        core.ParseAmountInput(req.Amount),
		Kind:          core.TransactionKind(req.Kind),
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Title:         req.Title,
		Description:   req.Description,
	}
	if req.OccurredOn != "" {
		when, err := time.ParseInLocation(dateLayout, req.OccurredOn, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid occurred_on date, expected YYYY-MM-DD")
			return
		}
		t.OccurredOn = when
	}

	sess := currentSession(r)
	created, err := sess.Ledger.Add(r.Context(), t)
	if err != nil {
		s.writeServiceError(w, r, err, "could not create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, transactionOut(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount        *string `json:"amount"`
		Kind          *string `json:"kind"`
		CategoryID    *string `json:"category_id"`
		SubcategoryID *string `json:"subcategory_id"`
		Title         *string `json:"title"`
		Description   *string `json:"description"`
		OccurredOn    *string `json:"occurred_on"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var upd gateway.TransactionUpdate
	if req.Amount != nil {
		amount := core.ParseAmountInput(*req.Amount)
		upd.Amount = &amount
	}
	if req.Kind != nil {
		kind := core.TransactionKind(*req.Kind)
		upd.Kind = &kind
	}
	upd.CategoryID = req.CategoryID
	upd.SubcategoryID = req.SubcategoryID
	upd.Title = req.Title
	upd.Description = req.Description
	if req.OccurredOn != nil {
		when, err := time.ParseInLocation(dateLayout, *req.OccurredOn, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid occurred_on date, expected YYYY-MM-DD")
			return
		}
		upd.OccurredOn = &when
	}

	sess := currentSession(r)
	if err := sess.Ledger.Update(r.Context(), r.PathValue("id"), upd); err != nil {
		s.writeServiceError(w, r, err, "could not update transaction")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "could not delete transaction")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	totals, err := sess.Ledger.Totals(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not compute totals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]moneyJSON{
		"income":  moneyOut(totals.Income),
		"expense": moneyOut(totals.Expense),
		"balance": moneyOut(totals.Balance),
	})
}
