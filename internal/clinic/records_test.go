package clinic_test

import (
	"context"
	"testing"

	"medicrm/internal/api"
	"medicrm/internal/clinic"
)

func TestRecordLifecycle(t *testing.T) {
	t.Parallel()
	svc, backend, _ := newStack(t, "house")
	ctx := context.Background()
	p := backend.SeedPatient(clinic.Patient{FirstName: "Ana", LastName: "Gomez", Email: "a@x.com"})

	created, err := svc.Records.Create(ctx, p.ID, clinic.Record{
		RecordDate: "2026-08-30",
		Doctor:     "house",
		Notes:      "first visit",
		Diagnosis:  "flu",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PatientID != p.ID {
		t.Fatalf("record not scoped to its patient: %+v", created)
	}

	created.Notes = "first visit, follow up booked"
	created.UpdatedBy = "house"
	updated, err := svc.Records.Update(ctx, p.ID, created.ID, *created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UpdatedAt == "" || updated.UpdatedBy != "house" {
		t.Fatalf("edit audit fields not set: %+v", updated)
	}

	chart, err := svc.Records.ListByPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chart) != 1 || chart[0].Notes != "first visit, follow up booked" {
		t.Fatalf("unexpected chart: %+v", chart)
	}

	if err := svc.Records.Delete(ctx, p.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	chart, err = svc.Records.ListByPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(chart) != 0 {
		t.Fatalf("record survived delete: %+v", chart)
	}
}

func TestRecordRequiresNotesBeforeNetwork(t *testing.T) {
	t.Parallel()
	svc := unreachableServices(t)
	_, err := svc.Records.Create(context.Background(), 1, clinic.Record{Diagnosis: "flu"})
	if !api.IsValidation(err) {
		t.Fatalf("expected local validation failure, got %v", err)
	}
}

func TestRecordForUnknownPatientIsNotFound(t *testing.T) {
	t.Parallel()
	svc, _, _ := newStack(t, "house")
	_, err := svc.Records.Create(context.Background(), 99999, clinic.Record{Notes: "x"})
	if !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
