package clinic_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"medicrm/internal/api"
	"medicrm/internal/clinic"
)

func TestAppointmentDenormalizesPatientName(t *testing.T) {
	t.Parallel()
	svc, backend, _ := newStack(t, "smith")
	ctx := context.Background()
	p := backend.SeedPatient(clinic.Patient{FirstName: "Ana", LastName: "Gomez", Email: "a@x.com"})

	created, err := svc.Appointments.Create(ctx, clinic.Appointment{
		PatientID: p.ID,
		Date:      "2026-09-01",
		Time:      "10:30:00",
		Doctor:    "house",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PatientName != "Ana Gomez" {
		t.Fatalf("server should fill patient_name, got %q", created.PatientName)
	}

	created.Time = "11:00:00"
	updated, err := svc.Appointments.Update(ctx, created.ID, *created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Time != "11:00:00" || updated.PatientName != "Ana Gomez" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestAppointmentValidatesShapeBeforeNetwork(t *testing.T) {
	t.Parallel()
	svc := unreachableServices(t)
	ctx := context.Background()

	cases := []clinic.Appointment{
		{Date: "2026-09-01", Time: "10:30:00", Doctor: "house"},                 // no patient
		{PatientID: 1, Date: "01/09/2026", Time: "10:30:00", Doctor: "house"},   // wrong date layout
		{PatientID: 1, Date: "2026-09-01", Time: "10:30", Doctor: "house"},      // wrong time layout
		{PatientID: 1, Date: "2026-09-01", Time: "10:30:00"},                    // no doctor
	}
	for i, a := range cases {
		if _, err := svc.Appointments.Create(ctx, a); !api.IsValidation(err) {
			t.Errorf("case %d: expected local validation failure, got %v", i, err)
		}
	}
}

// TestAppointmentBookAndCancelFlow walks the whole booking story: book
// on a day, see it in that day's queue, cancel it, see the queue empty.
func TestAppointmentBookAndCancelFlow(t *testing.T) {
	t.Parallel()
	svc, backend, _ := newStack(t, "smith")
	ctx := context.Background()
	p := backend.SeedPatient(clinic.Patient{FirstName: "Ana", LastName: "Gomez", Email: "a@x.com"})

	created, err := svc.Appointments.Create(ctx, clinic.Appointment{
		PatientID: p.ID, Date: "2026-09-01", Time: "10:30:00", Doctor: "house",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	all, err := svc.Appointments.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	day := clinic.DailyQueue(all, "2026-09-01")
	if len(day) != 1 || day[0].ID != created.ID {
		t.Fatalf("booked appointment missing from its day: %+v", day)
	}
	if len(clinic.DailyQueue(all, "2026-09-02")) != 0 {
		t.Fatal("appointment leaked into another day")
	}

	if err := svc.Appointments.Delete(ctx, created.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	all, err = svc.Appointments.List(ctx)
	if err != nil {
		t.Fatalf("list after cancel: %v", err)
	}
	if len(clinic.DailyQueue(all, "2026-09-01")) != 0 {
		t.Fatal("cancelled appointment still in the day queue")
	}
}

func TestDailyQueueAndUpcomingArePure(t *testing.T) {
	t.Parallel()
	items := []clinic.Appointment{
		{ID: 1, Date: "2026-08-29"},
		{ID: 2, Date: "2026-08-30"},
		{ID: 3, Date: "2026-09-01"},
	}
	snapshot := make([]clinic.Appointment, len(items))
	copy(snapshot, items)

	day := clinic.DailyQueue(items, "2026-08-30")
	if len(day) != 1 || day[0].ID != 2 {
		t.Fatalf("unexpected day queue: %+v", day)
	}

	up := clinic.Upcoming(items, "2026-08-30")
	if len(up) != 2 || up[0].ID != 2 || up[1].ID != 3 {
		t.Fatalf("unexpected upcoming set: %+v", up)
	}

	if diff := cmp.Diff(snapshot, items); diff != "" {
		t.Fatalf("projection mutated its input:\n%s", diff)
	}
}
