// Package app is the interactive terminal front end: tabbed list
// views over the clinic services, forms for the CRUD flows, and the
// polling inbox. All state transitions run on the bubbletea event
// loop; the services are the only thing that touches the network.
package app

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"medicrm/cmd/medicrm/ui"
	"medicrm/internal/clinic"
	"medicrm/internal/session"
	"medicrm/internal/viewstate"
)

// Tab selects the active top-level view.
type Tab int

const (
	TabPatients Tab = iota
	TabAppointments
	TabInbox
)

// tabNone marks a mutation result that reloads no tab-level list, so
// the zero value of a refetch field cannot mean "reload patients".
const tabNone Tab = -1

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabPatients:
		return "Patients"
	case TabAppointments:
		return "Appointments"
	case TabInbox:
		return "Inbox"
	default:
		return "?"
	}
}

// Mode is the input-handling state machine. A single mode replaces
// scattered boolean flags so the Update loop cannot reach mixed
// states.
type Mode int

const (
	ModeLogin Mode = iota
	ModeBrowse
	ModeSearch
	ModeForm
	ModeConfirm
	ModeHelp
)

// formKind identifies which entity a form edits.
type formKind int

const (
	formPatient formKind = iota
	formAppointment
	formRecord
)

// formState holds an open create/edit form. editID is zero for
// creates.
type formState struct {
	kind      formKind
	title     string
	fields    []textinput.Model
	labels    []string
	focus     int
	editID    int
	patientID int
	errMsg    string
}

// confirmState holds a pending confirm-before-destructive-action
// dialog. The action runs only on explicit confirmation.
type confirmState struct {
	prompt string
	action tea.Cmd
}

// inboxState is the polling chat panel. The poller is the only timer
// in the application; open/close cycles reuse the same instance so
// there is never more than one live interval loop.
type inboxState struct {
	open      bool
	partnerID int
	partners  []clinic.User
	partner   int // index into partners
	msgs      *viewstate.List[clinic.Message]
	input     textinput.Model
	poller    *viewstate.Poller
	ticks     chan struct{}
}

// Model is the bubbletea model for the whole client.
type Model struct {
	svc    *clinic.Services
	store  *session.Store
	log    *zap.Logger
	styles ui.Styles

	pollInterval time.Duration
	pageSize     int
	statusTTL    time.Duration

	width  int
	height int
	ready  bool

	tab  Tab
	mode Mode

	// Login screen
	loginUser textinput.Model
	loginPass textinput.Model
	loginErr  string

	// Patients tab
	patients    *viewstate.List[clinic.Patient]
	patientsWin viewstate.Window
	patientSel  int // index within the visible page
	search      textinput.Model

	// Patient detail (records)
	detailOpen bool
	detail     *clinic.Patient
	records    *viewstate.List[clinic.Record]
	recordsWin viewstate.Window
	recordSel  int

	// Appointments tab
	appointments *viewstate.List[clinic.Appointment]
	apptWin      viewstate.Window
	apptSel      int
	queueDate    string // DateLayout; the selected day
	showUpcoming bool

	inbox inboxState

	form    *formState
	confirm *confirmState

	spinner   spinner.Model
	status    string // transient notification line
	statusSeq int
	help      string // rendered help overlay, built lazily
}

// identity re-decodes the persisted credential. Never cached: a
// refresh that rotated the token is picked up on the next read.
func (m *Model) identity() *session.Identity {
	return session.DecodeFrom(m.store)
}
