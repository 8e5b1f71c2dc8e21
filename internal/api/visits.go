package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/carehub/internal/auth"
	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// VisitsHandler handles visit assignment, lookup and report submission.
type VisitsHandler struct {
	DB *sql.DB
}

type assignVisitsRequest struct {
	VolunteerID int64   `json:"volunteer_id" validate:"required,gt=0"`
	PatientIDs  []int64 `json:"patient_ids" validate:"required,min=1,dive,gt=0"`
	VisitDate   string  `json:"visit_date" validate:"required"`
}

type submitReportRequest struct {
	Status       model.VisitStatus `json:"status" validate:"required,oneof=completed cancelled"`
	ProcedureIDs []int64           `json:"procedure_ids" validate:"dive,gt=0"`
	Consumables  []model.UsageLine `json:"consumables" validate:"dive"`
	Notes        string            `json:"notes"`
}

// Assign handles POST /api/visits/assign.
func (h *VisitsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignVisitsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	visitDate, err := time.Parse(model.DateLayout, req.VisitDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "visit_date must be a date (YYYY-MM-DD)")
		return
	}

	visits, err := store.AssignVisits(r.Context(), h.DB, req.VolunteerID, req.PatientIDs, visitDate)
	if err != nil {
		storeError(w, r, err, "assigning visits")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Int64("volunteer_id", req.VolunteerID).
		Int("visits", len(visits)).
		Str("visit_date", req.VisitDate).
		Msg("visits assigned")
	jsonResponse(w, http.StatusCreated, visits)
}

// List handles GET /api/visits. Supported filters are status, from, to,
// volunteer_id and patient_id.
func (h *VisitsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f store.VisitFilter
	if s := model.VisitStatus(q.Get("status")); s != "" {
		if !s.Valid() {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
		f.Status = s
	}

	dates, err := dateRangeFromQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Dates = dates

	for _, p := range []struct {
		name string
		dst  *int64
	}{{"volunteer_id", &f.VolunteerID}, {"patient_id", &f.PatientID}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid "+p.name)
			return
		}
		*p.dst = id
	}

	page := pageFromQuery(r)
	visits, total, err := store.ListVisits(r.Context(), h.DB, f, page)
	if err != nil {
		storeError(w, r, err, "listing visits")
		return
	}
	jsonResponse(w, http.StatusOK, model.NewPageResult(visits, total, page))
}

// Get handles GET /api/visits/{id}. Volunteers only see their own visits.
func (h *VisitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVisit(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// SubmitReport handles POST /api/visits/{id}/report. Volunteers may only
// report on their own visits; staff may report on any.
func (h *VisitsHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVisit(w, r)
	if !ok {
		return
	}

	var req submitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	updated, err := store.SubmitVisitReport(r.Context(), h.DB, store.VisitReport{
		VisitID:      v.ID,
		ProcedureIDs: req.ProcedureIDs,
		Consumables:  req.Consumables,
		Status:       req.Status,
		Notes:        req.Notes,
		SubmittedBy:  claims.UserID,
	})
	if err != nil {
		storeError(w, r, err, "submitting visit report")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Int64("visit_id", updated.ID).
		Str("visit_code", updated.VisitCode).
		Str("status", string(updated.Status)).
		Int("usage_lines", len(req.Consumables)).
		Msg("visit report submitted")
	jsonResponse(w, http.StatusOK, updated)
}

// loadVisit fetches the {id} visit and checks the caller may access it. It
// writes the error response itself and reports whether to continue.
func (h *VisitsHandler) loadVisit(w http.ResponseWriter, r *http.Request) (*model.Visit, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid visit id")
		return nil, false
	}

	v, err := store.GetVisit(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "getting visit")
		return nil, false
	}
	if v == nil {
		jsonError(w, http.StatusNotFound, "visit not found")
		return nil, false
	}
	if !canAccessVisit(GetClaims(r.Context()), v) {
		jsonError(w, http.StatusForbidden, "visit is assigned to another volunteer")
		return nil, false
	}
	return v, true
}

func canAccessVisit(claims *auth.Claims, v *model.Visit) bool {
	if claims == nil {
		return false
	}
	if model.RoleAtLeast(claims.Role, model.RoleCoordinator) {
		return true
	}
	return claims.VolunteerID != 0 && claims.VolunteerID == v.VolunteerID
}
