// Package clinic maps domain operations onto the backend's REST
// resources. Each service call is a single round trip; all
// authoritative validation lives on the server, and the client only
// rejects payloads with missing required fields before transmission.
package clinic

import (
	"fmt"
	"strings"
)

// Wire layouts for appointment fields. Dates and times are wall-clock
// strings and are never pushed through a time zone conversion.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Patient is a clinic patient. First name, last name, and email are
// required; the demographic fields are optional.
type Patient struct {
	ID               int    `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Age              int    `json:"age,omitempty"`
	BirthDate        string `json:"birth_date,omitempty"`
	HomeAddress      string `json:"home_address,omitempty"`
	HomePhone        string `json:"home_phone,omitempty"`
	PersonalPhone    string `json:"personal_phone,omitempty"`
	Occupation       string `json:"occupation,omitempty"`
	MedicalInsurance string `json:"medical_insurance,omitempty"`
}

// FullName renders "First Last" for display.
func (p Patient) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", p.FirstName, p.LastName))
}

// Appointment pairs a patient with a calendar date, wall-clock time,
// and attending doctor. PatientName is denormalized by the server and
// absent from create/update payloads.
type Appointment struct {
	ID          int    `json:"id"`
	PatientID   int    `json:"patient_id"`
	PatientName string `json:"patient_name,omitempty"`
	Date        string `json:"appointment_date"`
	Time        string `json:"appointment_time"`
	Doctor      string `json:"doctor"`
}

// Record is one entry in a patient's chart. Append-mostly; only
// doctors edit or delete. UpdatedBy/UpdatedAt are set by the server
// when a record is edited after creation.
type Record struct {
	ID           int    `json:"id"`
	PatientID    int    `json:"patient_id"`
	RecordDate   string `json:"record_date"`
	Doctor       string `json:"doctor"`
	Notes        string `json:"notes"`
	Diagnosis    string `json:"diagnosis,omitempty"`
	Prescription string `json:"prescription,omitempty"`
	UpdatedBy    string `json:"updated_by,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// Message is one entry in a two-party conversation, ordered by
// creation time.
type Message struct {
	ID          int    `json:"id"`
	SenderID    int    `json:"sender_id"`
	RecipientID int    `json:"recipient_id"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
	Read        bool   `json:"read"`
}

// User is a messaging counterpart as listed by the conversation
// partner endpoint.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// DailyQueue returns the appointments whose date equals day
// (DateLayout). Pure; the input slice is not modified.
func DailyQueue(items []Appointment, day string) []Appointment {
	out := make([]Appointment, 0, len(items))
	for _, a := range items {
		if a.Date == day {
			out = append(out, a)
		}
	}
	return out
}

// Upcoming returns the appointments on or after today (DateLayout).
// ISO dates compare correctly as strings.
func Upcoming(items []Appointment, today string) []Appointment {
	out := make([]Appointment, 0, len(items))
	for _, a := range items {
		if a.Date >= today {
			out = append(out, a)
		}
	}
	return out
}
