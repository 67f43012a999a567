package clinic

import (
	"context"
	"fmt"
	"net/http"

	"medicrm/internal/api"
)

// PatientService exposes the patient CRUD operations.
type PatientService struct {
	c *api.Client
}

// List fetches every patient.
func (s *PatientService) List(ctx context.Context) ([]Patient, error) {
	var out []Patient
	if err := s.c.Do(ctx, http.MethodGet, "patients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one patient by id.
func (s *PatientService) Get(ctx context.Context, id int) (*Patient, error) {
	var out Patient
	if err := s.c.Do(ctx, http.MethodGet, fmt.Sprintf("patients/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registers a new patient. The payload is validated client-side
// first; the id on the input is ignored by the server.
func (s *PatientService) Create(ctx context.Context, p Patient) (*Patient, error) {
	if err := ValidatePatient(p); err != nil {
		return nil, err
	}
	var out Patient
	if err := s.c.Do(ctx, http.MethodPost, "patients", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the patient with the given id.
func (s *PatientService) Update(ctx context.Context, id int, p Patient) (*Patient, error) {
	if err := ValidatePatient(p); err != nil {
		return nil, err
	}
	var out Patient
	if err := s.c.Do(ctx, http.MethodPut, fmt.Sprintf("patients/%d", id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a patient. The backend cascades to the patient's
// records and appointments; callers treat a NotFound as already gone.
func (s *PatientService) Delete(ctx context.Context, id int) error {
	return s.c.Do(ctx, http.MethodDelete, fmt.Sprintf("patients/%d", id), nil, nil)
}
