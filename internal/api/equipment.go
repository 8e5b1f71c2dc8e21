package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/erazemk/carehub/internal/imaging"
	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// EquipmentHandler handles equipment types, items and their allocation.
type EquipmentHandler struct {
	DB     *sql.DB
	Policy model.AllocationPolicy
	Photo  imaging.Options
}

type createEquipmentTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type createEquipmentRequest struct {
	Name   string `json:"name" validate:"required"`
	TypeID int64  `json:"type_id" validate:"required,gt=0"`
}

type allocateRequest struct {
	PatientID int64 `json:"patient_id" validate:"required,gt=0"`
}

// ListTypes handles GET /api/equipment-types.
func (h *EquipmentHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListEquipmentTypes(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err, "listing equipment types")
		return
	}
	if types == nil {
		types = []model.EquipmentType{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// CreateType handles POST /api/equipment-types.
func (h *EquipmentHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	et, err := store.CreateEquipmentType(r.Context(), h.DB, req.Name, req.Description)
	if err != nil {
		storeError(w, r, err, "creating equipment type")
		return
	}
	jsonResponse(w, http.StatusCreated, et)
}

// List handles GET /api/equipment. ?allocated=true|false filters by state.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.EquipmentFilter{Search: q.Get("search")}
	if v := q.Get("allocated"); v != "" {
		allocated, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "allocated must be true or false")
			return
		}
		f.Allocated = &allocated
	}

	page := pageFromQuery(r)
	items, total, err := store.ListEquipment(r.Context(), h.DB, f, page)
	if err != nil {
		storeError(w, r, err, "listing equipment")
		return
	}
	jsonResponse(w, http.StatusOK, model.NewPageResult(items, total, page))
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := store.CreateEquipment(r.Context(), h.DB, req.Name, req.TypeID)
	if err != nil {
		storeError(w, r, err, "creating equipment")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("equipment_id", e.ID).Str("name", e.Name).Msg("equipment created")
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /api/equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	e, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "getting equipment")
		return
	}
	if e == nil || e.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	if err := store.DeleteEquipment(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "deleting equipment")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("equipment_id", id).Msg("equipment deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Allocate handles POST /api/equipment/{id}/allocate.
func (h *EquipmentHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	var req allocateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := store.AllocateEquipment(r.Context(), h.DB, id, req.PatientID, h.Policy)
	if err != nil {
		storeError(w, r, err, "allocating equipment")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Int64("equipment_id", id).
		Int64("patient_id", req.PatientID).
		Str("policy", string(h.Policy)).
		Msg("equipment allocated")
	jsonResponse(w, http.StatusOK, e)
}

// Deallocate handles POST /api/equipment/{id}/deallocate.
func (h *EquipmentHandler) Deallocate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	e, err := store.DeallocateEquipment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "deallocating equipment")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("equipment_id", id).Msg("equipment returned")
	jsonResponse(w, http.StatusOK, e)
}

// UploadImage handles PUT /api/equipment/{id}/image. The photo is
// normalized to a bounded JPEG before it is stored.
func (h *EquipmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	limit := h.Photo.MaxBytes
	if limit <= 0 {
		limit = imaging.DefaultMaxBytes
	}
	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessPhoto(file, h.Photo)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Warn().Err(err).Int64("equipment_id", id).Msg("rejected equipment photo")
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetEquipmentImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, r, err, "saving equipment image")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Int64("equipment_id", id).
		Int("width", photo.Width).
		Int("height", photo.Height).
		Msg("equipment photo uploaded")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/equipment/{id}/image.
func (h *EquipmentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	data, mime, err := store.GetEquipmentImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "getting equipment image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
