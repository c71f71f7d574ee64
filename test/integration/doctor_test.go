package integration

import (
	"context"
	"testing"

	"github.com/medisched/medisched/internal/config"
	"github.com/medisched/medisched/internal/domain/doctor"
	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/db"
)

func TestDoctors_GormRepository(t *testing.T) {
	pool := servicePool(t, config.ServiceDoctors)
	truncate(t, pool, "doctors")
	ctx := context.Background()

	gdb, err := db.OpenGorm(ctx, globalDB.serviceDSN(config.ServiceDoctors), 5, 1)
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	defer db.CloseGorm(gdb)

	svc := doctor.NewService(doctor.NewRepo(gdb))
	cardio, err := svc.Create(ctx, &doctor.CreateRequest{
		FirstName: "Cristina", LastName: "Yang", Specialization: "Cardiothoracic Surgery", LicenseNumber: "CT-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cardio.ID == 0 || cardio.ConsultationFee != doctor.DefaultConsultationFee {
		t.Errorf("unexpected doctor %+v", cardio)
	}
	if _, err := svc.Create(ctx, &doctor.CreateRequest{
		FirstName: "Other", LastName: "Doc", Specialization: "X", LicenseNumber: "CT-1",
	}); !apperr.Is(err, apperr.AlreadyExists) {
		t.Errorf("duplicate license: expected AlreadyExists, got %v", err)
	}
	svc.Create(ctx, &doctor.CreateRequest{FirstName: "Derek", LastName: "Shepherd", Specialization: "Neurosurgery", LicenseNumber: "NS-1"})
	svc.Create(ctx, &doctor.CreateRequest{FirstName: "Arizona", LastName: "Robbins", Specialization: "Pediatrics", LicenseNumber: "PD-1"})

	surgeons, err := svc.List(ctx, "SURGERY", 100, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(surgeons) != 2 {
		t.Errorf("expected 2 surgeons, got %d", len(surgeons))
	}
	if none, _ := svc.List(ctx, "%", 100, 0); len(none) != 0 {
		t.Errorf("wildcards must match literally, got %d doctors", len(none))
	}

	specs, err := svc.Specializations(ctx)
	if err != nil || len(specs) != 3 || specs[0] != "Cardiothoracic Surgery" {
		t.Errorf("Specializations: got %v, %v", specs, err)
	}

	fee := 250.0
	updated, err := svc.Update(ctx, cardio.ID, &doctor.Update{ConsultationFee: &fee})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ConsultationFee != 250 || updated.LastName != "Yang" {
		t.Errorf("unexpected doctor after update %+v", updated)
	}
	if _, err := svc.Get(ctx, 99999); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
