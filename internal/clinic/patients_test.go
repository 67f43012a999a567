package clinic_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"medicrm/internal/api"
	"medicrm/internal/clinic"
)

func TestPatientCRUD(t *testing.T) {
	t.Parallel()
	svc, _, _ := newStack(t, "smith")
	ctx := context.Background()

	created, err := svc.Patients.Create(ctx, clinic.Patient{
		FirstName: "Ana",
		LastName:  "Gomez",
		Email:     "ana@example.com",
		Age:       41,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created patient has no id")
	}

	got, err := svc.Patients.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Fatalf("get mismatch (-created +got):\n%s", diff)
	}

	created.Occupation = "teacher"
	updated, err := svc.Patients.Update(ctx, created.ID, *created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Occupation != "teacher" {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Patients.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Patients.Get(ctx, created.ID); !api.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestPatientCreateValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()
	svc := unreachableServices(t)

	// Missing last name and email: must fail locally, not as a network
	// error against the dead backend.
	_, err := svc.Patients.Create(context.Background(), clinic.Patient{FirstName: "Ana"})
	if !api.IsValidation(err) {
		t.Fatalf("expected local validation failure, got %v", err)
	}
}

func TestPatientValidationNamesAllMissingFields(t *testing.T) {
	t.Parallel()
	err := clinic.ValidatePatient(clinic.Patient{})
	if !api.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"first_name", "last_name", "email"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should name %s, got %q", field, err.Error())
		}
	}
}

func TestPatientGetUnknownIsNotFound(t *testing.T) {
	t.Parallel()
	svc, _, _ := newStack(t, "house")
	if _, err := svc.Patients.Get(context.Background(), 99999); !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// TestPatientDeleteCascades checks that a deleted patient takes their
// chart and appointments with them.
func TestPatientDeleteCascades(t *testing.T) {
	t.Parallel()
	svc, backend, _ := newStack(t, "house")
	ctx := context.Background()

	p := backend.SeedPatient(clinic.Patient{FirstName: "Ana", LastName: "Gomez", Email: "a@x.com"})
	if _, err := svc.Records.Create(ctx, p.ID, clinic.Record{Notes: "first visit"}); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if _, err := svc.Appointments.Create(ctx, clinic.Appointment{
		PatientID: p.ID, Date: "2026-09-01", Time: "10:30:00", Doctor: "house",
	}); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	if err := svc.Patients.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}

	if _, err := svc.Records.ListByPatient(ctx, p.ID); !api.IsNotFound(err) {
		t.Fatalf("records should be gone with the patient, got %v", err)
	}
	appts, err := svc.Appointments.List(ctx)
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	for _, a := range appts {
		if a.PatientID == p.ID {
			t.Fatalf("appointment survived the cascade: %+v", a)
		}
	}
}
