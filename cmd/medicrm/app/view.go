package app

import (
	"fmt"
	"strconv"
	"strings"

	"medicrm/cmd/medicrm/ui"
	"medicrm/internal/clinic"
	"medicrm/internal/viewstate"
)

// View renders the whole screen from model state. Rendering is pure:
// no network, no mutation, every frame recomputed from the working
// copies.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}
	if m.mode == ModeLogin {
		return m.loginView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	switch m.mode {
	case ModeHelp:
		b.WriteString(m.helpView())
	case ModeForm:
		b.WriteString(m.formView())
	default:
		switch m.tab {
		case TabPatients:
			if m.detailOpen {
				b.WriteString(m.detailView())
			} else {
				b.WriteString(m.patientsView())
			}
		case TabAppointments:
			b.WriteString(m.appointmentsView())
		default:
			b.WriteString(m.inboxView())
		}
	}

	b.WriteString("\n")
	if m.mode == ModeConfirm && m.confirm != nil {
		b.WriteString(m.styles.Warning.Render(m.confirm.prompt+" (y/n)") + "\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.Muted.Render(m.status) + "\n")
	}
	b.WriteString(m.footerView())
	return b.String()
}

func (m *Model) headerView() string {
	who := "signed out"
	if id := m.identity(); id != nil {
		who = fmt.Sprintf("%s (%s)", id.DisplayName(), id.Role)
	}
	left := m.styles.Header.Render("MediCRM")
	right := m.styles.Badge.Render(who)
	return left + " " + right
}

func (m *Model) tabsView() string {
	var parts []string
	for _, t := range []Tab{TabPatients, TabAppointments, TabInbox} {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.tab {
			parts = append(parts, m.styles.TabOn.Render(label))
		} else {
			parts = append(parts, m.styles.TabOff.Render(label))
		}
	}
	return strings.Join(parts, m.styles.Divider.Render("|"))
}

func (m *Model) loginView() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("MediCRM") + "\n\n")
	b.WriteString(m.styles.Title.Render("Sign in") + "\n\n")
	b.WriteString("  " + m.loginUser.View() + "\n")
	b.WriteString("  " + m.loginPass.View() + "\n\n")
	if m.loginErr != "" {
		b.WriteString("  " + m.styles.Error.Render(m.loginErr) + "\n\n")
	}
	b.WriteString(m.styles.Muted.Render("  enter: sign in · tab: switch field · ctrl+c: quit") + "\n")
	return b.String()
}

// phaseLine renders the loading or failure banner for a list, or ""
// when the list is ready to show.
func (m *Model) phaseLine(phase viewstate.Phase, err error) string {
	switch phase {
	case viewstate.PhaseLoading:
		return m.spinner.View() + " loading...\n"
	case viewstate.PhaseFailed:
		return m.styles.Error.Render("could not load: "+errText(err)) + "\n" +
			m.styles.Muted.Render("press r to retry") + "\n"
	default:
		return ""
	}
}

func (m *Model) patientsView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Patients") + "\n")
	if m.mode == ModeSearch {
		b.WriteString("/" + m.search.View() + "\n")
	} else if q := m.patientsWin.Query(); q != "" {
		b.WriteString(m.styles.Muted.Render("filter: "+q) + "\n")
	}

	if line := m.phaseLine(m.patients.Phase(), m.patients.Err()); line != "" {
		b.WriteString(line)
		return b.String()
	}

	visible, pages := m.visiblePatients()
	if len(visible) == 0 {
		b.WriteString(m.styles.Muted.Render("no patients match") + "\n")
		return b.String()
	}

	t := ui.NewTable("ID", "Name", "Email", "Age", "Insurance")
	for _, p := range visible {
		age := ""
		if p.Age > 0 {
			age = strconv.Itoa(p.Age)
		}
		t.AddRow(strconv.Itoa(p.ID), p.FullName(), p.Email, age, p.MedicalInsurance)
	}
	t.Selected = m.patientSel
	b.WriteString(t.View(m.styles))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("page %d/%d · %d total", m.patientsWin.Page(), pages, m.patients.Len())) + "\n")
	return b.String()
}

func (m *Model) detailView() string {
	var b strings.Builder
	if m.detail == nil {
		// Loading or failed before the patient arrived; the records
		// list carries the detail fetch outcome.
		return m.phaseLine(m.records.Phase(), m.records.Err())
	}

	p := m.detail
	b.WriteString(m.styles.Title.Render(p.FullName()) + "\n")
	field := func(label, v string) {
		if v != "" {
			b.WriteString(m.styles.Muted.Render(label+": ") + v + "\n")
		}
	}
	field("email", p.Email)
	if p.Age > 0 {
		field("age", strconv.Itoa(p.Age))
	}
	field("born", p.BirthDate)
	field("address", p.HomeAddress)
	field("home phone", p.HomePhone)
	field("mobile", p.PersonalPhone)
	field("occupation", p.Occupation)
	field("insurance", p.MedicalInsurance)
	b.WriteString("\n" + m.styles.Bold.Render("Medical records") + "\n")
	if m.mode == ModeSearch {
		b.WriteString("/" + m.search.View() + "\n")
	} else if q := m.recordsWin.Query(); q != "" {
		b.WriteString(m.styles.Muted.Render("filter: "+q) + "\n")
	}

	if line := m.phaseLine(m.records.Phase(), m.records.Err()); line != "" {
		b.WriteString(line)
		return b.String()
	}
	visible, pages := m.visibleRecords()
	if len(visible) == 0 {
		b.WriteString(m.styles.Muted.Render("no records match") + "\n")
		return b.String()
	}
	t := ui.NewTable("Date", "Doctor", "Diagnosis", "Notes")
	for _, r := range visible {
		t.AddRow(r.RecordDate, r.Doctor, r.Diagnosis, truncate(r.Notes, 40))
	}
	t.Selected = m.recordSel
	b.WriteString(t.View(m.styles))
	if r, ok := pick(visible, m.recordSel); ok && r.UpdatedBy != "" {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("last edited by %s at %s", r.UpdatedBy, r.UpdatedAt)) + "\n")
	}
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("page %d/%d", m.recordsWin.Page(), pages)) + "\n")
	return b.String()
}

func (m *Model) appointmentsView() string {
	var b strings.Builder
	scope := "Appointments for " + m.queueDate
	if m.showUpcoming {
		scope = "Upcoming appointments"
	}
	b.WriteString(m.styles.Title.Render(scope) + "\n")

	if line := m.phaseLine(m.appointments.Phase(), m.appointments.Err()); line != "" {
		b.WriteString(line)
		return b.String()
	}

	visible, pages := m.visibleAppointments()
	if len(visible) == 0 {
		b.WriteString(m.styles.Muted.Render("no appointments scheduled") + "\n")
		return b.String()
	}
	var t *ui.Table
	if m.showUpcoming {
		t = ui.NewTable("Date", "Time", "Patient", "Doctor")
		for _, a := range visible {
			t.AddRow(a.Date, a.Time, a.PatientName, a.Doctor)
		}
	} else {
		t = ui.NewTable("Time", "Patient", "Doctor")
		for _, a := range visible {
			t.AddRow(a.Time, a.PatientName, a.Doctor)
		}
	}
	t.Selected = m.apptSel
	b.WriteString(t.View(m.styles))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("page %d/%d", m.apptWin.Page(), pages)) + "\n")
	return b.String()
}

func (m *Model) inboxView() string {
	if !m.inbox.open {
		return m.partnersView()
	}
	return m.conversationView()
}

func (m *Model) partnersView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Inbox") + "\n")
	if len(m.inbox.partners) == 0 {
		b.WriteString(m.styles.Muted.Render("no one to message") + "\n")
		return b.String()
	}
	for i, u := range m.inbox.partners {
		line := fmt.Sprintf("%s (%s)", u.Username, u.Role)
		if i == m.inbox.partner {
			line = m.styles.Selected.Render(" " + line + " ")
		} else {
			line = " " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) conversationView() string {
	var b strings.Builder
	partner := "conversation"
	if u, ok := pick(m.inbox.partners, m.inbox.partner); ok {
		partner = u.Username
	}
	b.WriteString(m.styles.Title.Render("Chat with "+partner) + "\n")

	if line := m.phaseLine(m.inbox.msgs.Phase(), m.inbox.msgs.Err()); line != "" {
		b.WriteString(line)
	} else {
		msgs := m.inbox.msgs.Items()
		if len(msgs) == 0 {
			b.WriteString(m.styles.Muted.Render("no messages yet, say hi") + "\n")
		}
		me := 0
		if id := m.identity(); id != nil {
			me = id.UserID
		}
		for _, msg := range tail(msgs, 12) {
			label := partner
			style := m.styles.MsgTheir
			if msg.SenderID == me {
				label = "me"
				style = m.styles.MsgMine
			}
			marker := ""
			if !msg.Read && msg.SenderID != me {
				marker = m.styles.Warning.Render(" •")
			}
			b.WriteString(style.Render(label) + m.styles.Muted.Render(" "+msg.CreatedAt) + marker + "\n")
			b.WriteString("  " + msg.Content + "\n")
		}
	}
	b.WriteString("\n> " + m.inbox.input.View() + "\n")
	return b.String()
}

func (m *Model) formView() string {
	f := m.form
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(f.title) + "\n\n")
	for i, in := range f.fields {
		label := f.labels[i]
		if i == f.focus {
			b.WriteString(m.styles.Bold.Render(fmt.Sprintf("%-14s", label)))
		} else {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%-14s", label)))
		}
		b.WriteString(in.View() + "\n")
	}
	if f.errMsg != "" {
		b.WriteString("\n" + m.styles.Error.Render(f.errMsg) + "\n")
	}
	b.WriteString("\n" + m.styles.Muted.Render("enter/tab: next · ctrl+s: save · esc: cancel") + "\n")
	return b.String()
}

func (m *Model) footerView() string {
	var hint string
	switch {
	case m.mode == ModeForm, m.mode == ModeConfirm, m.mode == ModeHelp:
		return ""
	case m.mode == ModeSearch:
		hint = "enter: apply · esc: clear"
	case m.tab == TabPatients && m.detailOpen:
		hint = "n: record · e: edit · d: delete · /: filter · esc: back · ?: help"
	case m.tab == TabPatients:
		hint = "enter: open · n: new · e: edit · d: delete · /: filter · ?: help · q: quit"
	case m.tab == TabAppointments:
		hint = "[ ]: day · t: today · u: upcoming · n: book · d: cancel · ?: help"
	case m.inbox.open:
		hint = "enter: send · ctrl+n/p: partner · esc: close"
	default:
		hint = "enter: open chat · tab: switch view · ?: help · q: quit"
	}
	return m.styles.Muted.Render(hint)
}

// truncate shortens to n runes, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func tail(msgs []clinic.Message, n int) []clinic.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
