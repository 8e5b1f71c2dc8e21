package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// ReportsHandler serves read-only aggregates for coordinators.
type ReportsHandler struct {
	DB *sql.DB
}

type consumableUsageResponse struct {
	From  string               `json:"from,omitempty"`
	To    string               `json:"to,omitempty"`
	Items []model.UsageSummary `json:"items"`
}

type newPatientsResponse struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Count int    `json:"count"`
}

// Dashboard handles GET /api/dashboard.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetAdminStats(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err, "getting dashboard stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// ConsumableUsage handles GET /api/reports/consumable-usage?from=&to=.
// Only completed visits count, by completion date.
func (h *ReportsHandler) ConsumableUsage(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRangeFromQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := store.ConsumableUsageSummary(r.Context(), h.DB, dates)
	if err != nil {
		storeError(w, r, err, "summarizing consumable usage")
		return
	}
	if items == nil {
		items = []model.UsageSummary{}
	}

	q := r.URL.Query()
	jsonResponse(w, http.StatusOK, consumableUsageResponse{From: q.Get("from"), To: q.Get("to"), Items: items})
}

// NewPatients handles GET /api/reports/new-patients?from=&to=.
func (h *ReportsHandler) NewPatients(w http.ResponseWriter, r *http.Request) {
	dates, err := dateRangeFromQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := store.CountNewPatients(r.Context(), h.DB, dates)
	if err != nil {
		storeError(w, r, err, "counting new patients")
		return
	}

	q := r.URL.Query()
	jsonResponse(w, http.StatusOK, newPatientsResponse{From: q.Get("from"), To: q.Get("to"), Count: n})
}
