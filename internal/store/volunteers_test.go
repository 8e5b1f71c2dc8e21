package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/carehub/internal/db"
	"github.com/erazemk/carehub/internal/model"
)

func TestCreateVolunteer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := CreateVolunteer(ctx, database, NewVolunteer{
		Username:       "anna",
		PasswordHash:   "hash",
		Name:           "Anna Novak",
		MobileNumber:   " 041111222 ",
		Specialization: "nursing",
	})
	if err != nil {
		t.Fatalf("CreateVolunteer: %v", err)
	}
	if v.Username != "anna" || v.MobileNumber != "041111222" || v.Status != model.StatusActive {
		t.Errorf("unexpected volunteer: %+v", v)
	}

	u, _ := GetUserByUsername(ctx, database, "anna")
	if u == nil || u.Role != model.RoleVolunteer {
		t.Fatalf("expected volunteer login, got %+v", u)
	}

	byUser, _ := GetVolunteerByUserID(ctx, database, u.ID)
	if byUser == nil || byUser.ID != v.ID {
		t.Errorf("expected lookup by user id to find volunteer %d", v.ID)
	}
}

func TestCreateVolunteerDuplicateRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateVolunteer(ctx, database, NewVolunteer{Username: "a", PasswordHash: "h", Name: "A", MobileNumber: "123"})

	_, err := CreateVolunteer(ctx, database, NewVolunteer{Username: "b", PasswordHash: "h", Name: "B", MobileNumber: "123"})
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Field != "mobile_number" {
		t.Fatalf("expected duplicate mobile error, got %v", err)
	}

	// The login created before the failing profile insert must be gone too.
	if u, _ := GetUserByUsername(ctx, database, "b"); u != nil {
		t.Error("expected user insert to be rolled back")
	}

	_, err = CreateVolunteer(ctx, database, NewVolunteer{Username: "a", PasswordHash: "h", Name: "C"})
	if !errors.As(err, &dup) || dup.Field != "username" {
		t.Errorf("expected duplicate username error, got %v", err)
	}
}

func TestListAndDeactivateVolunteers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustVolunteer(t, database, "alice")
	mustVolunteer(t, database, "bob")
	mustVolunteer(t, database, "carol")

	list, total, err := ListVolunteers(ctx, database, "", model.Page{})
	if err != nil {
		t.Fatalf("ListVolunteers: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Fatalf("expected 3 volunteers, got %d", total)
	}

	found, _, _ := ListVolunteers(ctx, database, "BO", model.Page{})
	if len(found) != 1 || found[0].Name != "bob" {
		t.Errorf("expected search to find bob, got %+v", found)
	}

	if err := DeactivateVolunteer(ctx, database, a.ID); err != nil {
		t.Fatalf("DeactivateVolunteer: %v", err)
	}
	_, total, _ = ListVolunteers(ctx, database, "", model.Page{})
	if total != 2 {
		t.Errorf("expected 2 active volunteers, got %d", total)
	}
	if u, _ := GetUserByUsername(ctx, database, "alice"); u != nil {
		t.Error("expected deactivated volunteer login to be disabled")
	}

	got, _ := GetVolunteer(ctx, database, a.ID)
	if got.Status != model.StatusInactive {
		t.Errorf("expected inactive, got %q", got.Status)
	}

	if err := DeactivateVolunteer(ctx, database, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
