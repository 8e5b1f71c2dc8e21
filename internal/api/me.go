package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// MeHandler serves the calling volunteer's own schedule and history.
// Routes are wrapped in RequireVolunteer.
type MeHandler struct {
	DB *sql.DB
}

// Today handles GET /api/me/visits/today. ?date= picks another day.
func (h *MeHandler) Today(w http.ResponseWriter, r *http.Request) {
	day, ok := dayFromQuery(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	visits, err := store.ListVolunteerVisitsOn(r.Context(), h.DB, claims.VolunteerID, day)
	if err != nil {
		storeError(w, r, err, "listing today's visits")
		return
	}
	if visits == nil {
		visits = []model.Visit{}
	}
	jsonResponse(w, http.StatusOK, visits)
}

// History handles GET /api/me/visits/history.
func (h *MeHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	page := pageFromQuery(r)

	visits, total, err := store.ListVolunteerHistory(r.Context(), h.DB, claims.VolunteerID, page)
	if err != nil {
		storeError(w, r, err, "listing visit history")
		return
	}
	jsonResponse(w, http.StatusOK, model.NewPageResult(visits, total, page))
}

// Dashboard handles GET /api/me/dashboard.
func (h *MeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	day, ok := dayFromQuery(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	stats, err := store.GetVolunteerStats(r.Context(), h.DB, claims.VolunteerID, day)
	if err != nil {
		storeError(w, r, err, "getting volunteer stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// dayFromQuery reads ?date=, defaulting to the current local date.
func dayFromQuery(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Now(), true
	}
	day, err := time.Parse(model.DateLayout, v)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "date must be a date (YYYY-MM-DD)")
		return time.Time{}, false
	}
	return day, true
}
