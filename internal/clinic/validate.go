package clinic

import (
	"strings"
	"time"

	"medicrm/internal/api"
)

// ValidatePatient rejects a payload missing any of the required trio
// before it reaches the network.
func ValidatePatient(p Patient) error {
	var missing []string
	if strings.TrimSpace(p.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(p.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return api.Errorf(api.KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateAppointment checks presence and the wire layouts of the
// date/time pair. The values stay as entered; only their shape is
// checked.
func ValidateAppointment(a Appointment) error {
	if a.PatientID <= 0 {
		return api.Errorf(api.KindValidation, "patient_id is required")
	}
	if strings.TrimSpace(a.Doctor) == "" {
		return api.Errorf(api.KindValidation, "doctor is required")
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return api.Errorf(api.KindValidation, "appointment_date must look like %s", DateLayout)
	}
	if _, err := time.Parse(TimeLayout, a.Time); err != nil {
		return api.Errorf(api.KindValidation, "appointment_time must look like %s", TimeLayout)
	}
	return nil
}

// ValidateRecord requires the free-text notes; diagnosis and
// prescription stay optional.
func ValidateRecord(r Record) error {
	if strings.TrimSpace(r.Notes) == "" {
		return api.Errorf(api.KindValidation, "notes is required")
	}
	return nil
}

// ValidateMessage requires a recipient and non-blank content.
func ValidateMessage(recipientID int, content string) error {
	if recipientID <= 0 {
		return api.Errorf(api.KindValidation, "recipient_id is required")
	}
	if strings.TrimSpace(content) == "" {
		return api.Errorf(api.KindValidation, "content is required")
	}
	return nil
}
