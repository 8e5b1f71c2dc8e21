package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/carehub/internal/db"
	"github.com/erazemk/carehub/internal/model"
)

func mustEquipment(t *testing.T, database *sql.DB, name string) *model.Equipment {
	t.Helper()
	ctx := context.Background()
	types, _ := ListEquipmentTypes(ctx, database)
	var typeID int64
	if len(types) == 0 {
		et, err := CreateEquipmentType(ctx, database, "Mobility", "")
		if err != nil {
			t.Fatalf("CreateEquipmentType: %v", err)
		}
		typeID = et.ID
	} else {
		typeID = types[0].ID
	}
	e, err := CreateEquipment(ctx, database, name, typeID)
	if err != nil {
		t.Fatalf("CreateEquipment(%q): %v", name, err)
	}
	return e
}

func TestEquipmentTypes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateEquipmentType(ctx, database, "Wheelchair", "manual"); err != nil {
		t.Fatalf("CreateEquipmentType: %v", err)
	}
	if _, err := CreateEquipmentType(ctx, database, "Wheelchair", ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected duplicate, got %v", err)
	}

	types, err := ListEquipmentTypes(ctx, database)
	if err != nil {
		t.Fatalf("ListEquipmentTypes: %v", err)
	}
	if len(types) != 1 || types[0].Description != "manual" {
		t.Errorf("unexpected types: %+v", types)
	}

	if _, err := CreateEquipment(ctx, database, "Chair 1", 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found for unknown type, got %v", err)
	}
}

func TestAllocateReassignOverwrites(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Wheelchair 1")
	p1 := mustPatient(t, database, "P1")
	p2 := mustPatient(t, database, "P2")

	if e.Allocated || e.PatientID != nil {
		t.Fatalf("expected new equipment to be free: %+v", e)
	}

	got, err := AllocateEquipment(ctx, database, e.ID, p1.ID, model.AllocationReassign)
	if err != nil {
		t.Fatalf("AllocateEquipment: %v", err)
	}
	if !got.Allocated || *got.PatientID != p1.ID || got.PatientName != "P1" {
		t.Errorf("expected allocation to P1, got %+v", got)
	}

	got, err = AllocateEquipment(ctx, database, e.ID, p2.ID, model.AllocationReassign)
	if err != nil {
		t.Fatalf("AllocateEquipment: %v", err)
	}
	if *got.PatientID != p2.ID {
		t.Errorf("expected P2 to hold the equipment, got %d", *got.PatientID)
	}

	held, total, _ := ListEquipment(ctx, database, EquipmentFilter{Search: "P1"}, model.Page{})
	if total != 0 {
		t.Errorf("expected P1 to hold nothing, got %+v", held)
	}
}

func TestAllocateExclusive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Bed")
	p1 := mustPatient(t, database, "P1")
	p2 := mustPatient(t, database, "P2")

	if _, err := AllocateEquipment(ctx, database, e.ID, p1.ID, model.AllocationExclusive); err != nil {
		t.Fatalf("AllocateEquipment: %v", err)
	}
	// Same holder again is fine.
	if _, err := AllocateEquipment(ctx, database, e.ID, p1.ID, model.AllocationExclusive); err != nil {
		t.Errorf("expected re-allocation to the same patient to succeed, got %v", err)
	}
	if _, err := AllocateEquipment(ctx, database, e.ID, p2.ID, model.AllocationExclusive); !errors.Is(err, ErrAlreadyAllocated) {
		t.Fatalf("expected already allocated, got %v", err)
	}

	got, _ := GetEquipment(ctx, database, e.ID)
	if *got.PatientID != p1.ID {
		t.Errorf("expected P1 to keep the equipment, got %d", *got.PatientID)
	}

	if _, err := DeallocateEquipment(ctx, database, e.ID); err != nil {
		t.Fatalf("DeallocateEquipment: %v", err)
	}
	if _, err := AllocateEquipment(ctx, database, e.ID, p2.ID, model.AllocationExclusive); err != nil {
		t.Errorf("expected allocation of freed equipment to succeed, got %v", err)
	}
}

func TestAllocateNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Bed")
	p := mustPatient(t, database, "P")

	var nf *NotFoundError
	if _, err := AllocateEquipment(ctx, database, 9999, p.ID, model.AllocationReassign); !errors.As(err, &nf) || nf.Entity != "equipment" {
		t.Errorf("expected equipment not found, got %v", err)
	}
	if _, err := AllocateEquipment(ctx, database, e.ID, 9999, model.AllocationReassign); !errors.As(err, &nf) || nf.Entity != "patient" {
		t.Errorf("expected patient not found, got %v", err)
	}

	got, _ := GetEquipment(ctx, database, e.ID)
	if got.Allocated {
		t.Error("expected failed allocation to leave equipment free")
	}
}

func TestAllocateRefusesDeceasedPatient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Wheelchair 1")
	p := mustPatient(t, database, "Gone")
	if err := MarkPatientDeceased(ctx, database, p.ID); err != nil {
		t.Fatalf("MarkPatientDeceased: %v", err)
	}

	for _, policy := range []model.AllocationPolicy{model.AllocationReassign, model.AllocationExclusive} {
		if _, err := AllocateEquipment(ctx, database, e.ID, p.ID, policy); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected invalid input, got %v", policy, err)
		}
	}

	got, _ := GetEquipment(ctx, database, e.ID)
	if got.Allocated || got.PatientID != nil {
		t.Errorf("expected equipment to stay free, got %+v", got)
	}
}

func TestDeallocateIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Bed")
	p := mustPatient(t, database, "P")
	AllocateEquipment(ctx, database, e.ID, p.ID, model.AllocationReassign)

	for i := range 2 {
		got, err := DeallocateEquipment(ctx, database, e.ID)
		if err != nil {
			t.Fatalf("DeallocateEquipment #%d: %v", i+1, err)
		}
		if got.Allocated || got.PatientID != nil {
			t.Errorf("expected free equipment after deallocate #%d, got %+v", i+1, got)
		}
	}

	if _, err := DeallocateEquipment(ctx, database, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListEquipmentFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	chair := mustEquipment(t, database, "Wheelchair")
	mustEquipment(t, database, "Walker")
	mustEquipment(t, database, "Oxygen concentrator")
	p := mustPatient(t, database, "Marija Kovac")
	AllocateEquipment(ctx, database, chair.ID, p.ID, model.AllocationReassign)

	yes, no := true, false
	allocated, total, err := ListEquipment(ctx, database, EquipmentFilter{Allocated: &yes}, model.Page{})
	if err != nil {
		t.Fatalf("ListEquipment: %v", err)
	}
	if total != 1 || allocated[0].ID != chair.ID {
		t.Errorf("expected only the wheelchair allocated, got %+v", allocated)
	}

	_, total, _ = ListEquipment(ctx, database, EquipmentFilter{Allocated: &no}, model.Page{})
	if total != 2 {
		t.Errorf("expected 2 free items, got %d", total)
	}

	byPatient, _, _ := ListEquipment(ctx, database, EquipmentFilter{Search: "kovac"}, model.Page{})
	if len(byPatient) != 1 || byPatient[0].ID != chair.ID {
		t.Errorf("expected patient-name search to find the wheelchair, got %+v", byPatient)
	}

	byName, _, _ := ListEquipment(ctx, database, EquipmentFilter{Search: "WALK"}, model.Page{})
	if len(byName) != 1 || byName[0].Name != "Walker" {
		t.Errorf("expected name search to find the walker, got %+v", byName)
	}
}

func TestDeleteEquipment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Bed")
	p := mustPatient(t, database, "P")
	AllocateEquipment(ctx, database, e.ID, p.ID, model.AllocationReassign)

	if err := DeleteEquipment(ctx, database, e.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected in-use error while allocated, got %v", err)
	}

	DeallocateEquipment(ctx, database, e.ID)
	if err := DeleteEquipment(ctx, database, e.ID); err != nil {
		t.Fatalf("DeleteEquipment: %v", err)
	}

	_, total, _ := ListEquipment(ctx, database, EquipmentFilter{}, model.Page{})
	if total != 0 {
		t.Errorf("expected deleted equipment to be hidden, got %d", total)
	}
	if err := DeleteEquipment(ctx, database, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestEquipmentImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	e := mustEquipment(t, database, "Bed")

	if err := SetEquipmentImage(ctx, database, e.ID, []byte{0xff, 0xd8}, "image/jpeg"); err != nil {
		t.Fatalf("SetEquipmentImage: %v", err)
	}
	data, mime, err := GetEquipmentImage(ctx, database, e.ID)
	if err != nil {
		t.Fatalf("GetEquipmentImage: %v", err)
	}
	if len(data) != 2 || mime != "image/jpeg" {
		t.Errorf("unexpected image: %d bytes, %q", len(data), mime)
	}

	if err := SetEquipmentImage(ctx, database, 9999, nil, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
