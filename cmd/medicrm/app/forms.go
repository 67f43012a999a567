package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"medicrm/internal/api"
	"medicrm/internal/clinic"
)

var (
	errInvalidAge       = api.Errorf(api.KindValidation, "age must be a non-negative number")
	errInvalidPatientID = api.Errorf(api.KindValidation, "patient id must be a number")
)

func formInput(value, placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.SetValue(value)
	return in
}

// newPatientForm builds the create/edit form for a patient. A nil
// patient means create.
func newPatientForm(p *clinic.Patient) *formState {
	if p == nil {
		p = &clinic.Patient{}
	}
	age := ""
	if p.Age > 0 {
		age = strconv.Itoa(p.Age)
	}
	title := "New patient"
	if p.ID != 0 {
		title = "Edit " + p.FullName()
	}
	f := &formState{
		kind:   formPatient,
		title:  title,
		editID: p.ID,
		labels: []string{
			"First name *", "Last name *", "Email *",
			"Age", "Birth date", "Home address",
			"Home phone", "Personal phone", "Occupation", "Insurance",
		},
		fields: []textinput.Model{
			formInput(p.FirstName, "Jane"),
			formInput(p.LastName, "Doe"),
			formInput(p.Email, "jane@example.com"),
			formInput(age, "34"),
			formInput(p.BirthDate, clinic.DateLayout),
			formInput(p.HomeAddress, "12 Elm St"),
			formInput(p.HomePhone, ""),
			formInput(p.PersonalPhone, ""),
			formInput(p.Occupation, ""),
			formInput(p.MedicalInsurance, ""),
		},
	}
	f.fields[0].Focus()
	return f
}

// newAppointmentForm builds the create/edit form for an appointment.
// defaultDate seeds the date field for creates so booking from a day
// view lands on that day.
func newAppointmentForm(a *clinic.Appointment, defaultDate string) *formState {
	if a == nil {
		a = &clinic.Appointment{Date: defaultDate}
	}
	patientID := ""
	if a.PatientID > 0 {
		patientID = strconv.Itoa(a.PatientID)
	}
	title := "New appointment"
	if a.ID != 0 {
		title = "Edit appointment for " + a.PatientName
	}
	f := &formState{
		kind:   formAppointment,
		title:  title,
		editID: a.ID,
		labels: []string{"Patient ID *", "Date *", "Time *", "Doctor *"},
		fields: []textinput.Model{
			formInput(patientID, "1"),
			formInput(a.Date, clinic.DateLayout),
			formInput(a.Time, clinic.TimeLayout),
			formInput(a.Doctor, "Dr. House"),
		},
	}
	f.fields[0].Focus()
	return f
}

// newRecordForm builds the create/edit form for a chart record. doctor
// seeds the attending field on creates.
func newRecordForm(patientID int, r *clinic.Record, doctor string) *formState {
	if r == nil {
		r = &clinic.Record{
			RecordDate: time.Now().Format(clinic.DateLayout),
			Doctor:     doctor,
		}
	}
	title := "New record"
	if r.ID != 0 {
		title = "Edit record from " + r.RecordDate
	}
	f := &formState{
		kind:      formRecord,
		title:     title,
		editID:    r.ID,
		patientID: patientID,
		labels:    []string{"Date", "Doctor", "Notes *", "Diagnosis", "Prescription"},
		fields: []textinput.Model{
			formInput(r.RecordDate, clinic.DateLayout),
			formInput(r.Doctor, ""),
			formInput(r.Notes, "visit notes"),
			formInput(r.Diagnosis, ""),
			formInput(r.Prescription, ""),
		},
	}
	f.fields[0].Focus()
	return f
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = ModeBrowse
		return m, nil
	case "tab", "down":
		m.focusFormField((f.focus + 1) % len(f.fields))
		return m, textinput.Blink
	case "shift+tab", "up":
		m.focusFormField((f.focus + len(f.fields) - 1) % len(f.fields))
		return m, textinput.Blink
	case "enter":
		if f.focus < len(f.fields)-1 {
			m.focusFormField(f.focus + 1)
			return m, textinput.Blink
		}
		return m, m.submitForm()
	case "ctrl+s":
		return m, m.submitForm()
	}
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusFormField(i int) {
	f := m.form
	f.fields[f.focus].Blur()
	f.focus = i
	f.fields[f.focus].Focus()
}

// submitForm validates the entry client-side and, when it passes,
// closes the form and dispatches the mutation. A validation failure
// keeps the form open with the input intact.
func (m *Model) submitForm() tea.Cmd {
	f := m.form
	var cmd tea.Cmd
	switch f.kind {
	case formPatient:
		p, err := f.patient()
		if err != nil {
			f.errMsg = errText(err)
			return nil
		}
		if f.editID != 0 {
			cmd = m.updatePatientCmd(f.editID, p)
		} else {
			cmd = m.createPatientCmd(p)
		}
	case formAppointment:
		a, err := f.appointment()
		if err != nil {
			f.errMsg = errText(err)
			return nil
		}
		if f.editID != 0 {
			cmd = m.updateAppointmentCmd(f.editID, a)
		} else {
			cmd = m.createAppointmentCmd(a)
		}
	case formRecord:
		r, err := f.record()
		if err != nil {
			f.errMsg = errText(err)
			return nil
		}
		if f.editID != 0 {
			cmd = m.updateRecordCmd(f.patientID, f.editID, r)
		} else {
			cmd = m.createRecordCmd(f.patientID, r)
		}
	}
	m.form = nil
	m.mode = ModeBrowse
	return cmd
}

func (f *formState) value(i int) string {
	return strings.TrimSpace(f.fields[i].Value())
}

func (f *formState) patient() (clinic.Patient, error) {
	p := clinic.Patient{
		FirstName:        f.value(0),
		LastName:         f.value(1),
		Email:            f.value(2),
		BirthDate:        f.value(4),
		HomeAddress:      f.value(5),
		HomePhone:        f.value(6),
		PersonalPhone:    f.value(7),
		Occupation:       f.value(8),
		MedicalInsurance: f.value(9),
	}
	if raw := f.value(3); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 {
			return p, errInvalidAge
		}
		p.Age = age
	}
	return p, clinic.ValidatePatient(p)
}

func (f *formState) appointment() (clinic.Appointment, error) {
	a := clinic.Appointment{
		Date:   f.value(1),
		Time:   f.value(2),
		Doctor: f.value(3),
	}
	if raw := f.value(0); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return a, errInvalidPatientID
		}
		a.PatientID = id
	}
	return a, clinic.ValidateAppointment(a)
}

func (f *formState) record() (clinic.Record, error) {
	r := clinic.Record{
		RecordDate:   f.value(0),
		Doctor:       f.value(1),
		Notes:        f.value(2),
		Diagnosis:    f.value(3),
		Prescription: f.value(4),
	}
	return r, clinic.ValidateRecord(r)
}
