package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/chat"
	"github.com/vovakirdan/konnect-cli/internal/guard"
	"github.com/vovakirdan/konnect-cli/internal/session"
)

// Deps carries the shared services every view needs.
type Deps struct {
	API     *api.Client
	Session *session.Store
	Engine  *chat.Engine
	Log     *zerolog.Logger
}

// Model is the root program model. It resolves which view is visible from
// the current credential and forwards messages to the active sub-model.
type Model struct {
	deps  Deps
	route guard.Route
	size  tea.WindowSizeMsg

	login    loginModel
	register registerModel
	chat     chatModel
}

// NewModel builds the root model. The initial view follows the restored
// session: a present credential lands directly on the chat.
func NewModel(deps Deps) Model {
	m := Model{
		deps:     deps,
		route:    guard.RouteLogin,
		login:    newLoginModel(),
		register: newRegisterModel(),
		chat:     newChatModel(),
	}
	m.route = m.resolve(m.route)
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.route == guard.RouteChat {
		cmds = append(cmds, loadMessagesCmd(m.deps))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
		m.chat, _ = m.chat.update(msg, m.deps)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			if m.route == guard.RouteLogin {
				return m.switchTo(guard.RouteRegister)
			}
		case "ctrl+l":
			switch m.route {
			case guard.RouteRegister:
				return m.switchTo(guard.RouteLogin)
			case guard.RouteChat:
				m.deps.Session.Logout()
				m.deps.Engine.Reset()
				return m.switchTo(guard.RouteLogin)
			}
		}

	case LoginResultMsg:
		if msg.Err == nil {
			next, _ := m.switchTo(guard.RouteChat)
			return next, loadMessagesCmd(m.deps)
		}
	}

	return m.forward(msg)
}

// forward hands the message to whichever sub-model owns the active route.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.route = m.resolve(m.route)
	switch m.route {
	case guard.RouteLogin:
		m.login, cmd = m.login.update(msg, m.deps)
	case guard.RouteRegister:
		m.register, cmd = m.register.update(msg, m.deps)
	case guard.RouteChat:
		m.chat, cmd = m.chat.update(msg, m.deps)
	}
	return m, cmd
}

// switchTo re-resolves the requested route against the current credential
// before committing to it, so guarded views cannot be reached by keypress.
func (m Model) switchTo(route guard.Route) (tea.Model, tea.Cmd) {
	resolved := m.resolve(route)
	if resolved == m.route {
		m.route = resolved
		return m, nil
	}

	m.route = resolved
	switch resolved {
	case guard.RouteLogin:
		m.login = newLoginModel()
	case guard.RouteRegister:
		m.register = newRegisterModel()
	case guard.RouteChat:
		m.chat = newChatModel()
		if m.size.Width > 0 {
			m.chat, _ = m.chat.update(m.size, m.deps)
		}
	}
	return m, nil
}

// resolve maps the wanted route to the one the guard allows.
func (m Model) resolve(route guard.Route) guard.Route {
	return guard.Resolve(route, m.deps.Session.Credential())
}

func (m Model) View() string {
	switch m.route {
	case guard.RouteRegister:
		return m.register.view()
	case guard.RouteChat:
		return m.chat.view(m.deps)
	default:
		return m.login.view()
	}
}
