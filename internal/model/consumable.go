package model

import "time"

// Consumable is a shared, quantity-tracked supply item. Quantity never
// drops below zero.
type Consumable struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConsumableUsage is one line of consumables used during a visit.
type ConsumableUsage struct {
	ID           int64 `json:"id"`
	VisitID      int64 `json:"visit_id"`
	ConsumableID int64 `json:"consumable_id"`
	Quantity     int   `json:"quantity"`

	// Joined fields (not always populated).
	ConsumableName string `json:"consumable_name,omitempty"`
}

// UsageLine is a requested debit of Quantity units of a consumable.
type UsageLine struct {
	ConsumableID int64 `json:"consumable_id" validate:"required,gt=0"`
	Quantity     int   `json:"quantity" validate:"required,gt=0"`
}

// UsageSummary is the total quantity of a consumable used by completed visits.
type UsageSummary struct {
	ConsumableID   int64  `json:"consumable_id"`
	ConsumableName string `json:"consumable_name"`
	TotalUsed      int64  `json:"total_used"`
}
