package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/erazemk/carehub/internal/model"
)

func mustVolunteer(t *testing.T, database *sql.DB, name string) *model.Volunteer {
	t.Helper()
	v, err := CreateVolunteer(context.Background(), database, NewVolunteer{
		Username:     name,
		PasswordHash: "hash",
		Name:         name,
	})
	if err != nil {
		t.Fatalf("CreateVolunteer(%q): %v", name, err)
	}
	return v
}

var mobileSeq int

func mustPatient(t *testing.T, database *sql.DB, name string) *model.Patient {
	t.Helper()
	mobileSeq++
	p, err := CreatePatient(context.Background(), database, model.Patient{
		Name:         name,
		MobileNumber: fmt.Sprintf("555%07d", mobileSeq),
	})
	if err != nil {
		t.Fatalf("CreatePatient(%q): %v", name, err)
	}
	return p
}

func mustConsumable(t *testing.T, database *sql.DB, name string, qty int) *model.Consumable {
	t.Helper()
	c, err := CreateConsumable(context.Background(), database, name, "", "", qty)
	if err != nil {
		t.Fatalf("CreateConsumable(%q): %v", name, err)
	}
	return c
}

func quantityOf(t *testing.T, database *sql.DB, id int64) int {
	t.Helper()
	c, err := GetConsumable(context.Background(), database, id)
	if err != nil || c == nil {
		t.Fatalf("GetConsumable(%d): %v", id, err)
	}
	return c.Quantity
}
