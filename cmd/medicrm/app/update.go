package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"medicrm/internal/api"
	"medicrm/internal/clinic"
	"medicrm/internal/viewstate"
)

func patientFields(p clinic.Patient) []string {
	return []string{p.FirstName, p.LastName, p.Email}
}

func recordFields(r clinic.Record) []string {
	return []string{r.Notes, r.Diagnosis, r.Doctor}
}

func noFields(clinic.Appointment) []string { return nil }

// Update is the single event loop. Every network result passes through
// here exactly once; commands never mutate model state themselves.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case patientsFetchedMsg:
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		if m.patients.Resolve(msg.gen, msg.items, msg.err) {
			m.clampPatientSel()
			return m, reloadStatus(m, m.patients, msg.err)
		}
		return m, nil

	case appointmentsFetchedMsg:
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		if m.appointments.Resolve(msg.gen, msg.items, msg.err) {
			m.clampApptSel()
			return m, reloadStatus(m, m.appointments, msg.err)
		}
		return m, nil

	case detailFetchedMsg:
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		// A detail view closed before the fetch landed abandons it.
		if !m.detailOpen {
			return m, nil
		}
		if m.records.Resolve(msg.gen, msg.records, msg.err) {
			if msg.err == nil {
				m.detail = msg.patient
			}
			m.clampRecordSel()
			return m, reloadStatus(m, m.records, msg.err)
		}
		return m, nil

	case recordsFetchedMsg:
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		if !m.detailOpen {
			return m, nil
		}
		if m.records.Resolve(msg.gen, msg.items, msg.err) {
			m.clampRecordSel()
			return m, reloadStatus(m, m.records, msg.err)
		}
		return m, nil

	case conversationFetchedMsg:
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		// A response for a partner we already navigated away from is
		// abandoned work, not an update.
		if !m.inbox.open || msg.partnerID != m.inbox.partnerID {
			return m, nil
		}
		if m.inbox.msgs.Resolve(msg.gen, msg.items, msg.err) {
			if msg.err != nil {
				return m, reloadStatus(m, m.inbox.msgs, msg.err)
			}
			if ids := m.unreadIncoming(); len(ids) > 0 {
				return m, m.markReadCmd(ids)
			}
		}
		return m, nil

	case partnersFetchedMsg:
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		if msg.err != nil {
			return m, m.setStatus("partners: " + errText(msg.err))
		}
		m.inbox.partners = msg.items
		if m.inbox.partner >= len(msg.items) {
			m.inbox.partner = 0
		}
		return m, nil

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case loginDoneMsg:
		if msg.err != nil {
			m.loginErr = errText(msg.err)
			return m, nil
		}
		m.loginErr = ""
		m.loginPass.SetValue("")
		m.mode = ModeBrowse
		m.log.Info("signed in",
			zap.String("user", msg.identity.DisplayName()),
			zap.String("role", msg.identity.Role))
		return m, tea.Batch(m.fetchPatientsCmd(), m.fetchAppointmentsCmd())

	case pollTickMsg:
		cmds := []tea.Cmd{m.listenPollCmd()}
		if m.inbox.open {
			cmds = append(cmds, m.fetchConversationCmd(m.inbox.partnerID))
		}
		return m, tea.Batch(cmds...)

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}

	return m, m.updateFocusedInput(msg)
}

func (m *Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			return m, m.dropSession()
		}
		return m, m.setStatus(errText(msg.err))
	}

	cmds := []tea.Cmd{m.setStatus(msg.what)}
	switch {
	case msg.detail && m.detailOpen && m.detail != nil:
		cmds = append(cmds, m.fetchRecordsCmd(m.detail.ID))
	case msg.refetch == TabPatients:
		cmds = append(cmds, m.fetchPatientsCmd())
	case msg.refetch == TabAppointments:
		cmds = append(cmds, m.fetchAppointmentsCmd())
	case msg.refetch == TabInbox && m.inbox.open:
		cmds = append(cmds, m.fetchConversationCmd(m.inbox.partnerID))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.Shutdown()
		return m, tea.Quit
	}

	switch m.mode {
	case ModeLogin:
		return m.handleLoginKey(msg)
	case ModeHelp:
		m.mode = ModeBrowse
		return m, nil
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeForm:
		return m.handleFormKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if m.loginUser.Focused() {
			m.loginUser.Blur()
			m.loginPass.Focus()
		} else {
			m.loginPass.Blur()
			m.loginUser.Focus()
		}
		return m, textinput.Blink
	case "enter":
		if m.loginUser.Focused() {
			m.loginUser.Blur()
			m.loginPass.Focus()
			return m, textinput.Blink
		}
		user := strings.TrimSpace(m.loginUser.Value())
		pass := m.loginPass.Value()
		if user == "" || pass == "" {
			m.loginErr = "username and password are required"
			return m, nil
		}
		m.loginErr = ""
		return m, m.loginCmd(user, pass)
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		action := m.confirm.action
		m.confirm = nil
		m.mode = ModeBrowse
		return m, action
	case "n", "N", "esc":
		m.confirm = nil
		m.mode = ModeBrowse
		return m, nil
	}
	return m, nil
}

// searchTarget returns the window and selection the filter input is
// editing: the patient list, or the open chart.
func (m *Model) searchTarget() (*viewstate.Window, *int) {
	if m.detailOpen {
		return &m.recordsWin, &m.recordSel
	}
	return &m.patientsWin, &m.patientSel
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	win, sel := m.searchTarget()
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		win.SetQuery("")
		m.search.Blur()
		m.mode = ModeBrowse
		*sel = 0
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = ModeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	win.SetQuery(m.search.Value())
	*sel = 0
	return m, cmd
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// An open conversation owns the keyboard except for its few
	// control chords, so message text can contain any character.
	if m.tab == TabInbox && m.inbox.open {
		return m.handleChatKey(msg)
	}

	switch msg.String() {
	case "q":
		m.Shutdown()
		return m, tea.Quit
	case "?":
		m.mode = ModeHelp
		return m, nil
	case "tab":
		return m.switchTab((m.tab + 1) % 3)
	case "shift+tab":
		return m.switchTab((m.tab + 2) % 3)
	case "1":
		return m.switchTab(TabPatients)
	case "2":
		return m.switchTab(TabAppointments)
	case "3":
		return m.switchTab(TabInbox)
	}

	switch m.tab {
	case TabPatients:
		if m.detailOpen {
			return m.handleDetailKey(msg)
		}
		return m.handlePatientsKey(msg)
	case TabAppointments:
		return m.handleAppointmentsKey(msg)
	default:
		return m.handlePartnersKey(msg)
	}
}

func (m *Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	if m.tab == TabInbox && t != TabInbox {
		m.closeInbox()
	}
	m.tab = t
	if t == TabInbox && len(m.inbox.partners) == 0 {
		return m, m.fetchPartnersCmd()
	}
	return m, nil
}

func (m *Model) handlePatientsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible, _ := m.visiblePatients()
	switch msg.String() {
	case "up", "k":
		if m.patientSel > 0 {
			m.patientSel--
		}
	case "down", "j":
		if m.patientSel < len(visible)-1 {
			m.patientSel++
		}
	case "left", "h":
		m.patientsWin.Prev()
		m.patientSel = 0
	case "right", "l":
		m.patientsWin.Next(len(m.filteredPatients()))
		m.patientSel = 0
	case "/":
		return m, m.openSearch()
	case "r":
		return m, m.fetchPatientsCmd()
	case "n":
		if !m.identity().CanManagePatients() {
			return m, m.setStatus("your role cannot manage patients")
		}
		m.openForm(newPatientForm(nil))
		return m, textinput.Blink
	case "e":
		if !m.identity().CanManagePatients() {
			return m, m.setStatus("your role cannot manage patients")
		}
		if p, ok := pick(visible, m.patientSel); ok {
			m.openForm(newPatientForm(&p))
			return m, textinput.Blink
		}
	case "d":
		if !m.identity().CanManagePatients() {
			return m, m.setStatus("your role cannot manage patients")
		}
		if p, ok := pick(visible, m.patientSel); ok {
			m.confirm = &confirmState{
				prompt: fmt.Sprintf("Delete patient %s and their history?", p.FullName()),
				action: m.deletePatientCmd(p.ID),
			}
			m.mode = ModeConfirm
		}
	case "enter":
		if p, ok := pick(visible, m.patientSel); ok {
			m.detailOpen = true
			m.detail = nil
			m.records.Invalidate()
			m.recordsWin.SetQuery("")
			m.recordsWin.Reset()
			m.recordSel = 0
			return m, m.fetchDetailCmd(p.ID)
		}
	}
	return m, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible, _ := m.visibleRecords()
	switch msg.String() {
	case "esc", "backspace":
		m.detailOpen = false
		m.detail = nil
		return m, nil
	case "up", "k":
		if m.recordSel > 0 {
			m.recordSel--
		}
	case "down", "j":
		if m.recordSel < len(visible)-1 {
			m.recordSel++
		}
	case "left", "h":
		m.recordsWin.Prev()
		m.recordSel = 0
	case "right", "l":
		m.recordsWin.Next(len(m.filteredRecords()))
		m.recordSel = 0
	case "/":
		return m, m.openSearch()
	case "r":
		if m.detail != nil {
			return m, m.fetchDetailCmd(m.detail.ID)
		}
	case "n":
		if !m.identity().CanEditRecords() {
			return m, m.setStatus("only doctors write records")
		}
		if m.detail != nil {
			m.openForm(newRecordForm(m.detail.ID, nil, m.identity().DisplayName()))
			return m, textinput.Blink
		}
	case "e":
		if !m.identity().CanEditRecords() {
			return m, m.setStatus("only doctors write records")
		}
		if r, ok := pick(visible, m.recordSel); ok && m.detail != nil {
			m.openForm(newRecordForm(m.detail.ID, &r, ""))
			return m, textinput.Blink
		}
	case "d":
		if !m.identity().CanEditRecords() {
			return m, m.setStatus("only doctors write records")
		}
		if r, ok := pick(visible, m.recordSel); ok && m.detail != nil {
			m.confirm = &confirmState{
				prompt: fmt.Sprintf("Delete the record from %s?", r.RecordDate),
				action: m.deleteRecordCmd(m.detail.ID, r.ID),
			}
			m.mode = ModeConfirm
		}
	}
	return m, nil
}

func (m *Model) handleAppointmentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible, _ := m.visibleAppointments()
	switch msg.String() {
	case "up", "k":
		if m.apptSel > 0 {
			m.apptSel--
		}
	case "down", "j":
		if m.apptSel < len(visible)-1 {
			m.apptSel++
		}
	case "left", "h":
		m.apptWin.Prev()
		m.apptSel = 0
	case "right", "l":
		m.apptWin.Next(len(m.scopedAppointments()))
		m.apptSel = 0
	case "[":
		m.shiftQueueDate(-1)
	case "]":
		m.shiftQueueDate(1)
	case "t":
		m.queueDate = time.Now().Format(clinic.DateLayout)
		m.showUpcoming = false
		m.apptWin.Reset()
		m.apptSel = 0
	case "u":
		m.showUpcoming = !m.showUpcoming
		m.apptWin.Reset()
		m.apptSel = 0
	case "r":
		return m, m.fetchAppointmentsCmd()
	case "n":
		if !m.identity().CanManagePatients() {
			return m, m.setStatus("your role cannot manage appointments")
		}
		m.openForm(newAppointmentForm(nil, m.queueDate))
		return m, textinput.Blink
	case "e":
		if !m.identity().CanManagePatients() {
			return m, m.setStatus("your role cannot manage appointments")
		}
		if a, ok := pick(visible, m.apptSel); ok {
			m.openForm(newAppointmentForm(&a, m.queueDate))
			return m, textinput.Blink
		}
	case "d":
		if !m.identity().CanManagePatients() {
			return m, m.setStatus("your role cannot manage appointments")
		}
		if a, ok := pick(visible, m.apptSel); ok {
			m.confirm = &confirmState{
				prompt: fmt.Sprintf("Cancel the %s %s appointment for %s?", a.Date, a.Time, a.PatientName),
				action: m.deleteAppointmentCmd(a.ID),
			}
			m.mode = ModeConfirm
		}
	}
	return m, nil
}

func (m *Model) handlePartnersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.inbox.partner > 0 {
			m.inbox.partner--
		}
	case "down", "j":
		if m.inbox.partner < len(m.inbox.partners)-1 {
			m.inbox.partner++
		}
	case "r":
		return m, m.fetchPartnersCmd()
	case "enter":
		if len(m.inbox.partners) == 0 {
			return m, nil
		}
		return m, m.openConversation(m.inbox.partners[m.inbox.partner].ID)
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInbox()
		return m, nil
	case "enter":
		content := strings.TrimSpace(m.inbox.input.Value())
		if content == "" {
			return m, nil
		}
		m.inbox.input.SetValue("")
		return m, m.sendMessageCmd(m.inbox.partnerID, content)
	case "ctrl+n", "ctrl+p":
		n := len(m.inbox.partners)
		if n < 2 {
			return m, nil
		}
		if msg.String() == "ctrl+n" {
			m.inbox.partner = (m.inbox.partner + 1) % n
		} else {
			m.inbox.partner = (m.inbox.partner + n - 1) % n
		}
		return m, m.openConversation(m.inbox.partners[m.inbox.partner].ID)
	}
	var cmd tea.Cmd
	m.inbox.input, cmd = m.inbox.input.Update(msg)
	return m, cmd
}

// openConversation switches the inbox to a partner. The poller restart
// resets the interval so the first poll lands a full period after the
// immediate fetch.
func (m *Model) openConversation(partnerID int) tea.Cmd {
	m.inbox.open = true
	m.inbox.partnerID = partnerID
	m.inbox.msgs.Invalidate()
	m.inbox.input.Focus()
	m.inbox.poller.Start()
	return tea.Batch(m.fetchConversationCmd(partnerID), textinput.Blink)
}

// closeInbox stops polling and leaves the partner list showing. Safe
// when already closed.
func (m *Model) closeInbox() {
	if !m.inbox.open {
		return
	}
	m.inbox.open = false
	m.inbox.poller.Stop()
	m.inbox.input.Blur()
	m.inbox.msgs.Invalidate()
}

// dropSession handles a credential the backend will no longer accept:
// clear it, stop background work, and fall back to the login screen.
func (m *Model) dropSession() tea.Cmd {
	m.log.Warn("session rejected by backend, signing out")
	_ = m.svc.Auth.Logout()
	m.closeInbox()
	m.detailOpen = false
	m.detail = nil
	m.patients.Invalidate()
	m.appointments.Invalidate()
	m.records.Invalidate()
	m.mode = ModeLogin
	m.loginErr = "session expired, please sign in again"
	m.loginPass.SetValue("")
	m.loginPass.Blur()
	m.loginUser.Focus()
	return textinput.Blink
}

// updateFocusedInput forwards a message to whichever text input has
// focus, so cursor blinks and paste events reach it.
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.mode == ModeLogin && m.loginUser.Focused():
		m.loginUser, cmd = m.loginUser.Update(msg)
	case m.mode == ModeLogin:
		m.loginPass, cmd = m.loginPass.Update(msg)
	case m.mode == ModeSearch:
		m.search, cmd = m.search.Update(msg)
	case m.mode == ModeForm && m.form != nil:
		m.form.fields[m.form.focus], cmd = m.form.fields[m.form.focus].Update(msg)
	case m.inbox.open:
		m.inbox.input, cmd = m.inbox.input.Update(msg)
	}
	return cmd
}

// Derived views. Projections are recomputed on demand from the working
// copies; nothing derived is ever stored back.

func (m *Model) filteredPatients() []clinic.Patient {
	return viewstate.Filter(m.patients.Items(), m.patientsWin.Query(), patientFields)
}

func (m *Model) visiblePatients() ([]clinic.Patient, int) {
	return viewstate.Visible(&m.patientsWin, m.patients.Items(), patientFields)
}

func (m *Model) filteredRecords() []clinic.Record {
	return viewstate.Filter(m.records.Items(), m.recordsWin.Query(), recordFields)
}

func (m *Model) visibleRecords() ([]clinic.Record, int) {
	return viewstate.Visible(&m.recordsWin, m.records.Items(), recordFields)
}

// openSearch enters filter mode, editing whichever window is showing.
func (m *Model) openSearch() tea.Cmd {
	win, _ := m.searchTarget()
	m.search.SetValue(win.Query())
	m.search.CursorEnd()
	m.search.Focus()
	m.mode = ModeSearch
	return textinput.Blink
}

func (m *Model) scopedAppointments() []clinic.Appointment {
	items := m.appointments.Items()
	if m.showUpcoming {
		return clinic.Upcoming(items, time.Now().Format(clinic.DateLayout))
	}
	return clinic.DailyQueue(items, m.queueDate)
}

func (m *Model) visibleAppointments() ([]clinic.Appointment, int) {
	return viewstate.Visible(&m.apptWin, m.scopedAppointments(), noFields)
}

func (m *Model) shiftQueueDate(days int) {
	day, err := time.Parse(clinic.DateLayout, m.queueDate)
	if err != nil {
		day = time.Now()
	}
	m.queueDate = day.AddDate(0, 0, days).Format(clinic.DateLayout)
	m.showUpcoming = false
	m.apptWin.Reset()
	m.apptSel = 0
}

func (m *Model) clampPatientSel() {
	visible, _ := m.visiblePatients()
	if m.patientSel >= len(visible) {
		m.patientSel = max(0, len(visible)-1)
	}
}

func (m *Model) clampApptSel() {
	visible, _ := m.visibleAppointments()
	if m.apptSel >= len(visible) {
		m.apptSel = max(0, len(visible)-1)
	}
}

func (m *Model) clampRecordSel() {
	visible, _ := m.visibleRecords()
	if m.recordSel >= len(visible) {
		m.recordSel = max(0, len(visible)-1)
	}
}

// unreadIncoming lists message ids in the working copy addressed to the
// current user and not yet read.
func (m *Model) unreadIncoming() []int {
	id := m.identity()
	if id == nil {
		return nil
	}
	var out []int
	for _, msg := range m.inbox.msgs.Items() {
		if !msg.Read && msg.RecipientID == id.UserID {
			out = append(out, msg.ID)
		}
	}
	return out
}

func (m *Model) openForm(f *formState) {
	m.form = f
	m.mode = ModeForm
}

func pick[T any](items []T, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(items) {
		return zero, false
	}
	return items[i], true
}

// reloadStatus surfaces a refetch failure that kept the previous copy
// on screen. The phase stays Ready then, so no error banner renders
// and the status line is the only feedback the user gets.
func reloadStatus[T any](m *Model, l *viewstate.List[T], err error) tea.Cmd {
	if err == nil || l.Phase() != viewstate.PhaseReady {
		return nil
	}
	return m.setStatus("reload failed: " + errText(err))
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
