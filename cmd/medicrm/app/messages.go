package app

import (
	"medicrm/internal/clinic"
	"medicrm/internal/session"
)

// Messages delivered to the Update loop. Fetch results carry the
// generation stamped at dispatch so stale responses are discarded by
// the owning list.
type (
	patientsFetchedMsg struct {
		gen   uint64
		items []clinic.Patient
		err   error
	}

	appointmentsFetchedMsg struct {
		gen   uint64
		items []clinic.Appointment
		err   error
	}

	// detailFetchedMsg carries the patient and their chart, fetched
	// together when a detail view opens.
	detailFetchedMsg struct {
		gen     uint64
		patient *clinic.Patient
		records []clinic.Record
		err     error
	}

	recordsFetchedMsg struct {
		gen   uint64
		items []clinic.Record
		err   error
	}

	conversationFetchedMsg struct {
		gen       uint64
		partnerID int
		items     []clinic.Message
		err       error
	}

	partnersFetchedMsg struct {
		items []clinic.User
		err   error
	}

	// mutationDoneMsg reports a create/update/delete outcome. what is
	// the human label for the status line; refetch names the list to
	// reload on success.
	mutationDoneMsg struct {
		what    string
		refetch Tab
		detail  bool // reload the open patient's records instead
		err     error
	}

	loginDoneMsg struct {
		identity *session.Identity
		err      error
	}

	// pollTickMsg is delivered for every inbox poller tick that the
	// event loop observes. Ticks arriving after close are ignored.
	pollTickMsg struct{}

	statusClearMsg struct{ seq int }
)
