package api

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// ProceduresHandler handles the procedure catalogue.
type ProceduresHandler struct {
	DB *sql.DB
}

type createProcedureRequest struct {
	Name string `json:"name" validate:"required"`
}

// List handles GET /api/procedures.
func (h *ProceduresHandler) List(w http.ResponseWriter, r *http.Request) {
	procedures, err := store.ListProcedures(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err, "listing procedures")
		return
	}
	if procedures == nil {
		procedures = []model.Procedure{}
	}
	jsonResponse(w, http.StatusOK, procedures)
}

// Create handles POST /api/procedures.
func (h *ProceduresHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProcedureRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := store.CreateProcedure(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, r, err, "creating procedure")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("procedure_id", p.ID).Str("name", p.Name).Msg("procedure created")
	jsonResponse(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/procedures/{id}.
func (h *ProceduresHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid procedure id")
		return
	}

	if err := store.DeactivateProcedure(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "deactivating procedure")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("procedure_id", id).Msg("procedure deactivated")
	w.WriteHeader(http.StatusNoContent)
}
