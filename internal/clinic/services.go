package clinic

import (
	"medicrm/internal/api"
	"medicrm/internal/session"
)

// Services bundles every domain service over one shared gateway
// client.
type Services struct {
	Patients     *PatientService
	Appointments *AppointmentService
	Records      *RecordService
	Messages     *MessageService
	Auth         *AuthService
}

// NewServices wires the services to a gateway client and the
// credential store used by the login flow.
func NewServices(c *api.Client, store *session.Store) *Services {
	return &Services{
		Patients:     &PatientService{c: c},
		Appointments: &AppointmentService{c: c},
		Records:      &RecordService{c: c},
		Messages:     &MessageService{c: c},
		Auth:         &AuthService{c: c, store: store},
	}
}
