package clinic

import (
	"context"
	"fmt"
	"net/http"

	"medicrm/internal/api"
)

// AppointmentService exposes the appointment CRUD operations.
type AppointmentService struct {
	c *api.Client
}

// List fetches every appointment.
func (s *AppointmentService) List(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	if err := s.c.Do(ctx, http.MethodGet, "appointments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one appointment by id.
func (s *AppointmentService) Get(ctx context.Context, id int) (*Appointment, error) {
	var out Appointment
	if err := s.c.Do(ctx, http.MethodGet, fmt.Sprintf("appointments/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create books an appointment after client-side presence checks. The
// response echo carries the server-denormalized patient_name.
func (s *AppointmentService) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	if err := ValidateAppointment(a); err != nil {
		return nil, err
	}
	var out Appointment
	if err := s.c.Do(ctx, http.MethodPost, "appointments", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits an existing appointment.
func (s *AppointmentService) Update(ctx context.Context, id int, a Appointment) (*Appointment, error) {
	if err := ValidateAppointment(a); err != nil {
		return nil, err
	}
	var out Appointment
	if err := s.c.Do(ctx, http.MethodPut, fmt.Sprintf("appointments/%d", id), a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete cancels an appointment by id.
func (s *AppointmentService) Delete(ctx context.Context, id int) error {
	return s.c.Do(ctx, http.MethodDelete, fmt.Sprintf("appointments/%d", id), nil, nil)
}
