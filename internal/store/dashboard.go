package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/carehub/internal/model"
)

// AdminStats are the headline numbers of the coordinator dashboard.
type AdminStats struct {
	TotalPatients    int `json:"total_patients"`
	ActiveVolunteers int `json:"active_volunteers"`
	TotalEquipment   int `json:"total_equipment"`
	CompletedVisits  int `json:"completed_visits"`
	PendingVisits    int `json:"pending_visits"`
}

// VolunteerStats are the headline numbers of a volunteer's own dashboard.
type VolunteerStats struct {
	VisitsToday     int `json:"visits_today"`
	CompletedVisits int `json:"completed_visits"`
}

// GetAdminStats collects the coordinator dashboard counts.
func GetAdminStats(ctx context.Context, db *sql.DB) (*AdminStats, error) {
	s := &AdminStats{}
	err := db.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM patients),
		    (SELECT COUNT(*) FROM volunteers WHERE status = ?),
		    (SELECT COUNT(*) FROM equipment WHERE deleted_at IS NULL),
		    (SELECT COUNT(*) FROM visits WHERE status = ?),
		    (SELECT COUNT(*) FROM visits WHERE status = ?)`,
		model.StatusActive, model.VisitStatusCompleted, model.VisitStatusPending,
	).Scan(&s.TotalPatients, &s.ActiveVolunteers, &s.TotalEquipment, &s.CompletedVisits, &s.PendingVisits)
	if err != nil {
		return nil, fmt.Errorf("getting dashboard stats: %w", err)
	}
	return s, nil
}

// GetVolunteerStats collects a volunteer's dashboard counts for day.
func GetVolunteerStats(ctx context.Context, db *sql.DB, volunteerID int64, day time.Time) (*VolunteerStats, error) {
	s := &VolunteerStats{}
	err := db.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM visits WHERE volunteer_id = ? AND visit_date = ?),
		    (SELECT COUNT(*) FROM visits WHERE volunteer_id = ? AND status = ?)`,
		volunteerID, formatDate(day), volunteerID, model.VisitStatusCompleted,
	).Scan(&s.VisitsToday, &s.CompletedVisits)
	if err != nil {
		return nil, fmt.Errorf("getting volunteer stats: %w", err)
	}
	return s, nil
}

// ConsumableUsageSummary totals the quantity of each consumable used by
// completed visits whose completion date falls within r, ordered by
// consumable name. Consumables never used in the range are omitted.
func ConsumableUsageSummary(ctx context.Context, db *sql.DB, r DateRange) ([]model.UsageSummary, error) {
	where, args := r.where("v.completed_date", ` WHERE v.status = ?`, []any{model.VisitStatusCompleted})

	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.name, SUM(vc.quantity)
		 FROM visit_consumables vc
		 JOIN visits v ON v.id = vc.visit_id
		 JOIN consumables c ON c.id = vc.consumable_id`+where+`
		 GROUP BY c.id, c.name
		 ORDER BY c.name`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing consumable usage: %w", err)
	}
	defer rows.Close()

	var summary []model.UsageSummary
	for rows.Next() {
		var s model.UsageSummary
		if err := rows.Scan(&s.ConsumableID, &s.ConsumableName, &s.TotalUsed); err != nil {
			return nil, fmt.Errorf("scanning usage summary: %w", err)
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}
