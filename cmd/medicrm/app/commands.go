package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"medicrm/internal/clinic"
)

const callTimeout = 15 * time.Second

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}

// fetchPatientsCmd begins a stamped fetch of the patient list.
func (m *Model) fetchPatientsCmd() tea.Cmd {
	gen := m.patients.Begin()
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		items, err := svc.Patients.List(ctx)
		return patientsFetchedMsg{gen: gen, items: items, err: err}
	}
}

// fetchAppointmentsCmd begins a stamped fetch of the appointment list.
func (m *Model) fetchAppointmentsCmd() tea.Cmd {
	gen := m.appointments.Begin()
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		items, err := svc.Appointments.List(ctx)
		return appointmentsFetchedMsg{gen: gen, items: items, err: err}
	}
}

// fetchDetailCmd loads a patient and their chart in parallel for the
// detail view.
func (m *Model) fetchDetailCmd(patientID int) tea.Cmd {
	gen := m.records.Begin()
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()

		var (
			patient *clinic.Patient
			records []clinic.Record
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p, err := svc.Patients.Get(gctx, patientID)
			patient = p
			return err
		})
		g.Go(func() error {
			r, err := svc.Records.ListByPatient(gctx, patientID)
			records = r
			return err
		})
		if err := g.Wait(); err != nil {
			return detailFetchedMsg{gen: gen, err: err}
		}
		return detailFetchedMsg{gen: gen, patient: patient, records: records}
	}
}

// fetchRecordsCmd reloads only the open patient's chart.
func (m *Model) fetchRecordsCmd(patientID int) tea.Cmd {
	gen := m.records.Begin()
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		items, err := svc.Records.ListByPatient(ctx, patientID)
		return recordsFetchedMsg{gen: gen, items: items, err: err}
	}
}

// fetchConversationCmd begins a stamped fetch of the conversation with
// the current partner. The partner id rides along so a response for a
// previous partner can be recognized and dropped.
func (m *Model) fetchConversationCmd(partnerID int) tea.Cmd {
	gen := m.inbox.msgs.Begin()
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		items, err := svc.Messages.Conversation(ctx, partnerID)
		return conversationFetchedMsg{gen: gen, partnerID: partnerID, items: items, err: err}
	}
}

func (m *Model) fetchPartnersCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		items, err := svc.Messages.Partners(ctx)
		return partnersFetchedMsg{items: items, err: err}
	}
}

// listenPollCmd waits for the next poller tick. Re-armed after every
// delivered tick; the channel outlives open/close cycles.
func (m *Model) listenPollCmd() tea.Cmd {
	ticks := m.inbox.ticks
	return func() tea.Msg {
		<-ticks
		return pollTickMsg{}
	}
}

// markReadCmd flags unread messages addressed to the current user.
// Fire-and-forget: failures only get logged, the next poll repairs
// the view.
func (m *Model) markReadCmd(ids []int) tea.Cmd {
	svc := m.svc
	log := m.log
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		for _, id := range ids {
			if err := svc.Messages.MarkRead(ctx, id); err != nil {
				log.Warn("mark read failed", zap.Int("message_id", id), zap.Error(err))
				return nil
			}
		}
		return nil
	}
}

func (m *Model) sendMessageCmd(recipientID int, content string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Messages.Send(ctx, recipientID, content)
		return mutationDoneMsg{what: "message sent", refetch: TabInbox, err: err}
	}
}

func (m *Model) loginCmd(username, password string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		id, err := svc.Auth.Login(ctx, username, password)
		return loginDoneMsg{identity: id, err: err}
	}
}

// Mutation commands. All follow refetch-after-mutation: the working
// copy is never spliced locally, success triggers a fresh list fetch.

func (m *Model) createPatientCmd(p clinic.Patient) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Patients.Create(ctx, p)
		return mutationDoneMsg{what: "patient created", refetch: TabPatients, err: err}
	}
}

func (m *Model) updatePatientCmd(id int, p clinic.Patient) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Patients.Update(ctx, id, p)
		return mutationDoneMsg{what: "patient updated", refetch: TabPatients, err: err}
	}
}

func (m *Model) deletePatientCmd(id int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		err := svc.Patients.Delete(ctx, id)
		return mutationDoneMsg{what: "patient deleted", refetch: TabPatients, err: err}
	}
}

func (m *Model) createAppointmentCmd(a clinic.Appointment) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Appointments.Create(ctx, a)
		return mutationDoneMsg{what: "appointment booked", refetch: TabAppointments, err: err}
	}
}

func (m *Model) updateAppointmentCmd(id int, a clinic.Appointment) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Appointments.Update(ctx, id, a)
		return mutationDoneMsg{what: "appointment updated", refetch: TabAppointments, err: err}
	}
}

func (m *Model) deleteAppointmentCmd(id int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		err := svc.Appointments.Delete(ctx, id)
		return mutationDoneMsg{what: "appointment deleted", refetch: TabAppointments, err: err}
	}
}

func (m *Model) createRecordCmd(patientID int, r clinic.Record) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Records.Create(ctx, patientID, r)
		return mutationDoneMsg{what: "record added", refetch: tabNone, detail: true, err: err}
	}
}

func (m *Model) updateRecordCmd(patientID, recordID int, r clinic.Record) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		_, err := svc.Records.Update(ctx, patientID, recordID, r)
		return mutationDoneMsg{what: "record updated", refetch: tabNone, detail: true, err: err}
	}
}

func (m *Model) deleteRecordCmd(patientID, recordID int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := callContext()
		defer cancel()
		err := svc.Records.Delete(ctx, patientID, recordID)
		return mutationDoneMsg{what: "record deleted", refetch: tabNone, detail: true, err: err}
	}
}

// setStatus replaces the transient notification and schedules its
// expiry; an expiry for a superseded status is ignored via seq.
func (m *Model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(m.statusTTL, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}
