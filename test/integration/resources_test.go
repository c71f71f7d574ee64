package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/medisched/medisched/internal/config"
	"github.com/medisched/medisched/internal/domain/billing"
	"github.com/medisched/medisched/internal/domain/patient"
	"github.com/medisched/medisched/internal/domain/record"
	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/auth"
	"github.com/medisched/medisched/internal/platform/db"
)

var (
	itPatient = &auth.Principal{SubjectID: 1, DisplayName: "alice", Role: auth.RolePatient}
	itDoctor  = &auth.Principal{SubjectID: 3, DisplayName: "drsmith", Role: auth.RoleDoctor}
	itAdmin   = &auth.Principal{SubjectID: 9, DisplayName: "root", Role: auth.RoleAdmin}
)

func TestPatients_Profile(t *testing.T) {
	pool := servicePool(t, config.ServicePatients)
	truncate(t, pool, "patients")
	ctx := context.Background()
	svc := patient.NewService(patient.NewRepo(pool))

	in := func() *patient.ProfileInput {
		return &patient.ProfileInput{FirstName: "Alice", LastName: "Liddell", DateOfBirth: "1990-04-01"}
	}
	p, err := svc.Create(ctx, itPatient, in())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.DateOfBirth != "1990-04-01" {
		t.Errorf("expected date_of_birth round trip, got %q", p.DateOfBirth)
	}
	if _, err := svc.Create(ctx, itPatient, in()); !apperr.Is(err, apperr.AlreadyExists) {
		t.Errorf("second profile: expected AlreadyExists, got %v", err)
	}

	allergies := "penicillin"
	upd := in()
	upd.Allergies = &allergies
	if _, err := svc.Update(ctx, itPatient, p.ID, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	me, err := svc.Me(ctx, itPatient)
	if err != nil || me.Allergies == nil || *me.Allergies != allergies {
		t.Errorf("Me: got %+v, %v", me, err)
	}
}

func TestRecords_ListOrder(t *testing.T) {
	pool := servicePool(t, config.ServiceRecords)
	truncate(t, pool, "medical_records")
	ctx := context.Background()
	svc := record.NewService(record.NewRepo(pool))

	for _, date := range []string{"2024-01-10", "2024-03-05", "2023-12-24"} {
		if _, err := svc.Create(ctx, itDoctor, &record.CreateRequest{
			PatientID: 1, Content: record.Content{Diagnosis: "visit " + date, RecordDate: date},
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, err := svc.ListForPatient(ctx, itPatient, 1, 100, 0)
	if err != nil {
		t.Fatalf("ListForPatient: %v", err)
	}
	if len(items) != 3 || items[0].RecordDate != "2024-03-05" || items[2].RecordDate != "2023-12-24" {
		t.Errorf("expected newest first, got %+v", items)
	}

	updated, err := svc.Update(ctx, itDoctor, items[0].ID, &record.Content{Diagnosis: "resolved", RecordDate: "2024-03-06"})
	if err != nil || updated.Diagnosis != "resolved" {
		t.Errorf("Update: got %+v, %v", updated, err)
	}
}

func TestBilling_PayAndSummary(t *testing.T) {
	pool := servicePool(t, config.ServiceBilling)
	truncate(t, pool, "invoices")
	ctx := context.Background()
	repo := billing.NewRepo(pool)
	svc := billing.NewService(repo)

	first, err := svc.Create(ctx, itDoctor, &billing.CreateRequest{PatientID: 1, Amount: 120.50})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, itAdmin, &billing.CreateRequest{PatientID: 1, Amount: 80}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	paid, err := svc.Pay(ctx, itPatient, first.ID, "2024-06-02")
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if paid.Status != billing.StatusPaid || paid.PaidDate == nil || *paid.PaidDate != "2024-06-02" {
		t.Errorf("unexpected invoice %+v", paid)
	}
	if _, err := svc.Pay(ctx, itAdmin, first.ID, ""); !errors.Is(err, billing.ErrAlreadyPaid) {
		t.Errorf("expected ErrAlreadyPaid, got %v", err)
	}

	sum, err := svc.Summary(ctx, itAdmin)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := billing.Summary{PendingInvoices: 1, PendingAmount: 80, PaidInvoices: 1, PaidAmount: 120.5, TotalAmount: 200.5}
	if *sum != want {
		t.Errorf("expected %+v, got %+v", want, *sum)
	}

	pending, err := svc.ListMine(ctx, itPatient, "pending", 100, 0)
	if err != nil || len(pending) != 1 {
		t.Errorf("ListMine(pending): got %d, %v", len(pending), err)
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	pool := servicePool(t, config.ServiceAppointments)
	ctx := context.Background()
	m := db.NewMigrator(pool, db.ServiceDir(globalDB.MigrationsDir, config.ServiceAppointments))

	applied, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no pending migrations, applied %d", applied)
	}
	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.Name)
		}
	}
}
