package http

import (
	"fmt"
	"net/http"

	"carteira/internal/log"
	"carteira/internal/reports"
)

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	txs, err := sess.Ledger.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not load transactions")
		return
	}
	summary := reports.Summarize(txs)
	writeJSON(w, http.StatusOK, map[string]any{
		"income":       moneyOut(summary.Income),
		"expense":      moneyOut(summary.Expense),
		"balance":      moneyOut(summary.Balance),
		"transactions": summary.Transactions,
	})
}

func (s *Server) handleReportMonthly(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	txs, err := sess.Ledger.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not load transactions")
		return
	}

	type monthJSON struct {
		Month   string    `json:"month"`
		Income  moneyJSON `json:"income"`
		Expense moneyJSON `json:"expense"`
		Balance moneyJSON `json:"balance"`
	}
	series := reports.MonthlySeries(txs)
	out := make([]monthJSON, 0, len(series))
	for _, b := range series {
		out = append(out, monthJSON{
			Month:   fmt.Sprintf("%04d-%02d", b.Year, b.Month),
			Income:  moneyOut(b.Income),
			Expense: moneyOut(b.Expense),
			Balance: moneyOut(b.Balance),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReportCategories(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	txs, err := sess.Ledger.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not load transactions")
		return
	}

	type categoryJSON struct {
		Category   string    `json:"category"`
		Color      string    `json:"color,omitempty"`
		Total      moneyJSON `json:"total"`
		Percentage float64   `json:"percentage"`
	}
	breakdown := reports.ExpenseByCategory(txs)
	out := make([]categoryJSON, 0, len(breakdown))
	for _, b := range breakdown {
		out = append(out, categoryJSON{
			Category:   b.Category,
			Color:      b.Color,
			Total:      moneyOut(b.Total),
			Percentage: b.Percentage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	sess := currentSession(r)
	txs, err := sess.Ledger.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not load transactions")
		return
	}

	summary := reports.Summarize(txs)
	series := reports.MonthlySeries(txs)
	breakdown := reports.ExpenseByCategory(txs)
	if err := s.exporter.Export(r.Context(), summary, series, breakdown); err != nil {
		s.logger.ErrorContext(r.Context(), "spreadsheet export failed", log.FieldError, err)
		writeError(w, http.StatusBadGateway, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "export completed"})
}
