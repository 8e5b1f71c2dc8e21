package model

import "time"

// Volunteer is the care-giving profile attached to a volunteer login.
type Volunteer struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	MobileNumber   string    `json:"mobile_number,omitempty"`
	Address        string    `json:"address,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
}
