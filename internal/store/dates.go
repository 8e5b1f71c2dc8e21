package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/carehub/internal/model"
)

// Calendar dates are stored as TEXT in model.DateLayout so they compare and
// sort lexically.

// now is replaced in tests.
var now = time.Now

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

func today() string {
	return formatDate(now())
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DateRange is an inclusive range of calendar dates. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// where appends the range condition on column to a WHERE clause.
func (r DateRange) where(column, clause string, args []any) (string, []any) {
	if !r.From.IsZero() {
		clause += ` AND ` + column + ` >= ?`
		args = append(args, formatDate(r.From))
	}
	if !r.To.IsZero() {
		clause += ` AND ` + column + ` <= ?`
		args = append(args, formatDate(r.To))
	}
	return clause, args
}
