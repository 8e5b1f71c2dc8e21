package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/erazemk/carehub/internal/model"
	"github.com/erazemk/carehub/internal/store"
)

// ConsumablesHandler handles the consumable stock ledger.
type ConsumablesHandler struct {
	DB *sql.DB
}

type createConsumableRequest struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=1000000000"`
}

type stockChangeRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0,lte=1000000000"`
}

// List handles GET /api/consumables.
func (h *ConsumablesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := model.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	page := pageFromQuery(r)
	consumables, total, err := store.ListConsumables(r.Context(), h.DB, store.ConsumableFilter{
		Status: status,
		Search: q.Get("search"),
	}, page)
	if err != nil {
		storeError(w, r, err, "listing consumables")
		return
	}
	jsonResponse(w, http.StatusOK, model.NewPageResult(consumables, total, page))
}

// Create handles POST /api/consumables.
func (h *ConsumablesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConsumableRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := store.CreateConsumable(r.Context(), h.DB, req.Name, req.Category, req.Unit, req.Quantity)
	if err != nil {
		storeError(w, r, err, "creating consumable")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("consumable_id", c.ID).Str("name", c.Name).Int("quantity", c.Quantity).Msg("consumable created")
	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/consumables/{id}.
func (h *ConsumablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid consumable id")
		return
	}

	c, err := store.GetConsumable(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "getting consumable")
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "consumable not found")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Delete handles DELETE /api/consumables/{id}.
func (h *ConsumablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid consumable id")
		return
	}

	if err := store.DeactivateConsumable(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "deactivating consumable")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("consumable_id", id).Msg("consumable deactivated")
	w.WriteHeader(http.StatusNoContent)
}

// Debit handles POST /api/consumables/{id}/debit.
func (h *ConsumablesHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, "debit", store.DebitConsumable)
}

// Credit handles POST /api/consumables/{id}/credit.
func (h *ConsumablesHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, "credit", store.CreditConsumable)
}

type stockFunc func(ctx context.Context, db *sql.DB, id int64, quantity int) (*model.Consumable, error)

func (h *ConsumablesHandler) changeStock(w http.ResponseWriter, r *http.Request, op string, apply stockFunc) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid consumable id")
		return
	}

	var req stockChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := apply(r.Context(), h.DB, id, req.Quantity)
	if err != nil {
		storeError(w, r, err, op+" consumable")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("op", op).
		Int64("consumable_id", id).
		Int("quantity", req.Quantity).
		Int("balance", c.Quantity).
		Msg("stock changed")
	jsonResponse(w, http.StatusOK, c)
}
