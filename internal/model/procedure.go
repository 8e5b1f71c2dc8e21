package model

import "time"

// Procedure is a kind of care procedure that can be performed during a visit.
type Procedure struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
