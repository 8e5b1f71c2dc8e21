package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// PatientsHandler handles patient registration and updates.
type PatientsHandler struct {
	DB *sql.DB
}

type createPatientRequest struct {
	Name             string   `json:"name" validate:"required"`
	MobileNumber     string   `json:"mobile_number" validate:"required"`
	Age              int      `json:"age" validate:"gte=0,lte=150"`
	Gender           string   `json:"gender"`
	Address          string   `json:"address"`
	MedicalCondition string   `json:"medical_condition"`
	EmergencyContact string   `json:"emergency_contact"`
	Latitude         *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude        *float64 `json:"longitude" validate:"omitempty,longitude"`
	RegisteredOn     string   `json:"registered_on"`
}

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Address   string   `json:"address"`
}

// List handles GET /api/patients. ?alive_only=true hides deceased patients.
func (h *PatientsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	aliveOnly, _ := strconv.ParseBool(q.Get("alive_only"))
	page := pageFromQuery(r)

	patients, total, err := store.ListPatients(r.Context(), h.DB, store.PatientFilter{
		Search:    q.Get("search"),
		AliveOnly: aliveOnly,
	}, page)
	if err != nil {
		storeError(w, r, err, "listing patients")
		return
	}
	jsonResponse(w, http.StatusOK, model.NewPageResult(patients, total, page))
}

// Create handles POST /api/patients.
func (h *PatientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := model.Patient{
		Name:             req.Name,
		MobileNumber:     req.MobileNumber,
		Age:              req.Age,
		Gender:           req.Gender,
		Address:          req.Address,
		MedicalCondition: req.MedicalCondition,
		EmergencyContact: req.EmergencyContact,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
	}
	if req.RegisteredOn != "" {
		t, err := time.Parse(model.DateLayout, req.RegisteredOn)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "registered_on must be a date (YYYY-MM-DD)")
			return
		}
		p.RegisteredOn = t
	}

	created, err := store.CreatePatient(r.Context(), h.DB, p)
	if err != nil {
		storeError(w, r, err, "creating patient")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("patient_id", created.ID).Msg("patient registered")
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/patients/{id}.
func (h *PatientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	p, err := store.GetPatient(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "getting patient")
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "patient not found")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// MarkDeceased handles DELETE /api/patients/{id}. Patients are never
// removed; they are marked deceased and keep their visit history.
func (h *PatientsHandler) MarkDeceased(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	if err := store.MarkPatientDeceased(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "marking patient deceased")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("patient_id", id).Msg("patient marked deceased")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateLocation handles PUT /api/patients/{id}/location.
func (h *PatientsHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	var req updateLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := store.UpdatePatientLocation(r.Context(), h.DB, id, model.Location{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   req.Address,
	})
	if err != nil {
		storeError(w, r, err, "updating patient location")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}
