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

// Options configures the application model.
type Options struct {
	Services     *clinic.Services
	Store        *session.Store
	Logger       *zap.Logger
	PollInterval time.Duration
	PageSize     int
}

// New builds the application model. The inbox poller is created
// stopped; it only runs while the inbox is open.
func New(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 3
	}

	search := textinput.New()
	search.Placeholder = "filter"
	search.CharLimit = 64

	loginUser := textinput.New()
	loginUser.Placeholder = "username"
	loginUser.Focus()
	loginPass := textinput.New()
	loginPass.Placeholder = "password"
	loginPass.EchoMode = textinput.EchoPassword

	chatInput := textinput.New()
	chatInput.Placeholder = "type a message"
	chatInput.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ticks := make(chan struct{}, 1)
	m := &Model{
		svc:          opts.Services,
		store:        opts.Store,
		log:          opts.Logger,
		styles:       ui.NewStyles(),
		pollInterval: opts.PollInterval,
		pageSize:     opts.PageSize,
		statusTTL:    4 * time.Second,
		tab:          TabPatients,
		mode:         ModeBrowse,
		loginUser:    loginUser,
		loginPass:    loginPass,
		patients:     viewstate.NewList[clinic.Patient](),
		patientsWin:  viewstate.NewWindow(opts.PageSize),
		search:       search,
		records:      viewstate.NewList[clinic.Record](),
		recordsWin:   viewstate.NewWindow(opts.PageSize),
		appointments: viewstate.NewList[clinic.Appointment](),
		apptWin:      viewstate.NewWindow(opts.PageSize),
		queueDate:    time.Now().Format(clinic.DateLayout),
		spinner:      sp,
	}
	m.inbox = inboxState{
		msgs:  viewstate.NewList[clinic.Message](),
		input: chatInput,
		ticks: ticks,
	}
	// The tick callback never blocks: if the loop is busy a queued
	// tick is already pending and coalescing is fine for polling.
	m.inbox.poller = viewstate.NewPoller(opts.PollInterval, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	if m.identity() == nil {
		m.mode = ModeLogin
	}
	return m
}

// Init starts the spinner, arms the single poll-tick listener, and,
// when already logged in, kicks off the initial fetches.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.listenPollCmd()}
	if m.mode != ModeLogin {
		cmds = append(cmds, m.fetchPatientsCmd(), m.fetchAppointmentsCmd())
	}
	return tea.Batch(cmds...)
}

// Shutdown releases the poller. Safe to call more than once.
func (m *Model) Shutdown() {
	m.inbox.poller.Stop()
}
