package clinic

import (
	"context"
	"fmt"
	"net/http"

	"medicrm/internal/api"
)

// RecordService exposes the per-patient record operations. Records are
// always scoped to their parent patient.
type RecordService struct {
	c *api.Client
}

// ListByPatient fetches the chart for one patient.
func (s *RecordService) ListByPatient(ctx context.Context, patientID int) ([]Record, error) {
	var out []Record
	path := fmt.Sprintf("patients/%d/records", patientID)
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create appends a record to a patient's chart.
func (s *RecordService) Create(ctx context.Context, patientID int, r Record) (*Record, error) {
	if err := ValidateRecord(r); err != nil {
		return nil, err
	}
	var out Record
	path := fmt.Sprintf("patients/%d/records", patientID)
	if err := s.c.Do(ctx, http.MethodPost, path, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits one record in a patient's chart.
func (s *RecordService) Update(ctx context.Context, patientID, recordID int, r Record) (*Record, error) {
	if err := ValidateRecord(r); err != nil {
		return nil, err
	}
	var out Record
	path := fmt.Sprintf("patients/%d/records/%d", patientID, recordID)
	if err := s.c.Do(ctx, http.MethodPut, path, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes one record from a patient's chart.
func (s *RecordService) Delete(ctx context.Context, patientID, recordID int) error {
	path := fmt.Sprintf("patients/%d/records/%d", patientID, recordID)
	return s.c.Do(ctx, http.MethodDelete, path, nil, nil)
}
