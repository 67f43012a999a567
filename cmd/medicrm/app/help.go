package app

import "github.com/charmbracelet/glamour"

const helpText = `# MediCRM keys

## Everywhere
| key | action |
|-----|--------|
| tab / shift+tab | next / previous view |
| 1 2 3 | jump to a view |
| r | reload the current list |
| ? | this help |
| q / ctrl+c | quit |

## Patients
enter opens a patient's chart. / filters by name or email.
n, e and d create, edit and delete; deleting asks first and also
removes the patient's records and appointments.

## Appointments
The list shows one day at a time. [ and ] step a day, t jumps to
today, u toggles the upcoming view. n books on the shown day.

## Chart (inside a patient)
n adds a record, e and d edit and delete the selected one. Only
doctors can write to a chart. esc goes back to the list.

## Inbox
enter opens a conversation; it refreshes on its own while open.
enter sends, ctrl+n / ctrl+p switch partner, esc closes the chat
and stops the refresh.
`

// helpView renders the keymap, lazily, through the markdown renderer.
// On a render failure the raw markdown is still perfectly readable.
func (m *Model) helpView() string {
	if m.help != "" {
		return m.help
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		m.help = helpText
		return m.help
	}
	out, err := renderer.Render(helpText)
	if err != nil {
		m.help = helpText
		return m.help
	}
	m.help = out
	return m.help
}
