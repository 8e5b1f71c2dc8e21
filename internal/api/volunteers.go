package api

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// VolunteersHandler handles volunteer registration and lookup.
type VolunteersHandler struct {
	DB *sql.DB
}

type createVolunteerRequest struct {
	Username       string `json:"username" validate:"required"`
	Password       string `json:"password" validate:"required"`
	Name           string `json:"name" validate:"required"`
	MobileNumber   string `json:"mobile_number"`
	Address        string `json:"address"`
	Specialization string `json:"specialization"`
}

// List handles GET /api/volunteers.
func (h *VolunteersHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	volunteers, total, err := store.ListVolunteers(r.Context(), h.DB, r.URL.Query().Get("search"), page)
	if err != nil {
		storeError(w, r, err, "listing volunteers")
		return
	}
	jsonResponse(w, http.StatusOK, model.NewPageResult(volunteers, total, page))
}

// Create handles POST /api/volunteers.
func (h *VolunteersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVolunteerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("hashing password")
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	v, err := store.CreateVolunteer(r.Context(), h.DB, store.NewVolunteer{
		Username:       req.Username,
		PasswordHash:   string(hash),
		Name:           req.Name,
		MobileNumber:   req.MobileNumber,
		Address:        req.Address,
		Specialization: req.Specialization,
	})
	if err != nil {
		storeError(w, r, err, "creating volunteer")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("volunteer_id", v.ID).Str("name", v.Name).Msg("volunteer registered")
	jsonResponse(w, http.StatusCreated, v)
}

// Get handles GET /api/volunteers/{id}.
func (h *VolunteersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid volunteer id")
		return
	}

	v, err := store.GetVolunteer(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "getting volunteer")
		return
	}
	if v == nil {
		jsonError(w, http.StatusNotFound, "volunteer not found")
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// Delete handles DELETE /api/volunteers/{id}. The volunteer is deactivated
// and can no longer log in; their visit history is kept.
func (h *VolunteersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid volunteer id")
		return
	}

	if err := store.DeactivateVolunteer(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "deactivating volunteer")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("volunteer_id", id).Msg("volunteer deactivated")
	w.WriteHeader(http.StatusNoContent)
}
