package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// registerModel is the guest-only registration form. A successful
// registration does not log the user in; it switches back to the login
// view so the new account can be exercised end to end.
type registerModel struct {
	username textinput.Model
	password textinput.Model
	email    textinput.Model
	focus    int
	busy     bool
	errText  string
	okText   string
}

func newRegisterModel() registerModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128

	email := textinput.New()
	email.Placeholder = "email (optional)"
	email.CharLimit = 128

	return registerModel{username: username, password: password, email: email}
}

func (m *registerModel) inputs() []*textinput.Model {
	return []*textinput.Model{&m.username, &m.password, &m.email}
}

func (m registerModel) update(msg tea.Msg, deps Deps) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % 3)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + 2) % 3)
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			username := strings.TrimSpace(m.username.Value())
			if username == "" || m.password.Value() == "" {
				m.errText = "username and password are required"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			m.okText = ""
			return m, registerCmd(deps, username, m.password.Value(), strings.TrimSpace(m.email.Value()))
		}
	case RegisterResultMsg:
		m.busy = false
		if msg.Err != nil {
			// an account-exists failure stays on this view; the user can
			// pick another name or switch to login
			m.errText = msg.Err.Error()
			return m, nil
		}
		m.okText = "account created, you can log in now"
		return m, nil
	}

	var cmd tea.Cmd
	inputs := m.inputs()
	*inputs[m.focus], cmd = inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *registerModel) setFocus(focus int) {
	m.focus = focus
	for i, input := range m.inputs() {
		if i == focus {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

func (m registerModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Konnect · register"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Username") + "\n" + m.username.View() + "\n\n")
	b.WriteString(labelStyle.Render("Password") + "\n" + m.password.View() + "\n\n")
	b.WriteString(labelStyle.Render("Email") + "\n" + m.email.View() + "\n")

	if m.busy {
		b.WriteString("\n" + infoStyle.Render("registering…"))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}
	if m.okText != "" {
		b.WriteString("\n" + infoStyle.Render(m.okText))
	}
	b.WriteString("\n" + helpStyle.Render("enter: register • ctrl+l: back to login • ctrl+c: quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
