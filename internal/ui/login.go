package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginModel is the guest-only login form.
type loginModel struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errText  string
}

func newLoginModel() loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128

	return loginModel{username: username, password: password}
}

func (m loginModel) update(msg tea.Msg, deps Deps) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.username.Blur()
				m.password.Focus()
			}
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			username := strings.TrimSpace(m.username.Value())
			password := m.password.Value()
			if username == "" || password == "" {
				m.errText = "username and password are required"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, loginCmd(deps, username, password)
		}
	case LoginResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Konnect · log in"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Username") + "\n" + m.username.View() + "\n\n")
	b.WriteString(labelStyle.Render("Password") + "\n" + m.password.View() + "\n")

	if m.busy {
		b.WriteString("\n" + infoStyle.Render("logging in…"))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}
	b.WriteString("\n" + helpStyle.Render("enter: log in • ctrl+r: register • ctrl+c: quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
