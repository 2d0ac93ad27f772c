package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/service"
)

// financeHandler serves the financial ledger and the admin dashboard figures.
type financeHandler struct {
	ledger service.LedgerService
	stats  service.StatsService
}

func (h *financeHandler) listRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.FinancialRecordFilter{
		Type:     domain.RecordType(q.Get("type")),
		Category: q.Get("category"),
		Limit:    limit,
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		writeError(w, r, domain.NewValidationError("type", "must be income or expense"))
		return
	}
	records, err := h.ledger.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *financeHandler) getRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.ledger.GetRecord(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *financeHandler) createRecord(w http.ResponseWriter, r *http.Request) {
	var record domain.FinancialRecord
	if err := decodeJSON(w, r, &record); err != nil {
		writeError(w, r, err)
		return
	}
	record.ID = ""
	record.RecordedBy = adminEmail(r.Context())
	result, err := h.ledger.CreateRecord(r.Context(), &record)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *financeHandler) updateRecord(w http.ResponseWriter, r *http.Request) {
	var record domain.FinancialRecord
	if err := decodeJSON(w, r, &record); err != nil {
		writeError(w, r, err)
		return
	}
	record.ID = mux.Vars(r)["id"]
	record.RecordedBy = adminEmail(r.Context())
	result, err := h.ledger.UpdateRecord(r.Context(), &record)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *financeHandler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteRecord(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type totalsResponse struct {
	domain.LedgerTotals
	Available string `json:"available"`
}

func (h *financeHandler) totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledger.GetTotals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{LedgerTotals: totals, Available: totals.Available().StringFixed(2)})
}

func (h *financeHandler) categories(w http.ResponseWriter, r *http.Request) {
	recordType := domain.RecordType(r.URL.Query().Get("type"))
	if !recordType.IsValid() {
		writeError(w, r, domain.NewValidationError("type", "must be income or expense"))
		return
	}
	writeJSON(w, http.StatusOK, h.ledger.CategorySuggestions(recordType))
}

func (h *financeHandler) financialStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.FinancialStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *financeHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
