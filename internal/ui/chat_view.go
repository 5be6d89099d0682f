package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/konnect-cli/internal/chat"
)

// chatModel is the authenticated message list plus composer.
type chatModel struct {
	viewport  viewport.Model
	input     textinput.Model
	selected  int
	confirm   string // id of the message awaiting delete confirmation
	busy      bool
	statusErr string
	ready     bool
}

func newChatModel() chatModel {
	input := textinput.New()
	input.Placeholder = "skriv ett meddelande…"
	input.Focus()
	input.CharLimit = 500

	return chatModel{input: input, selected: -1}
}

func (m chatModel) update(msg tea.Msg, deps Deps) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport = viewport.New(msg.Width, max(msg.Height-6, 3))
		m.ready = true
		m.refresh(deps)
		return m, nil

	case tea.KeyMsg:
		if m.confirm != "" {
			switch msg.String() {
			case "y", "Y":
				id := m.confirm
				m.confirm = ""
				return m, deleteCmd(deps, id)
			default:
				m.confirm = ""
			}
			return m, nil
		}

		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			text := m.input.Value()
			if chat.Sanitize(text) == "" {
				// nothing to send; mirrors the disabled send button
				return m, nil
			}
			m.busy = true
			m.statusErr = ""
			m.input.Reset()
			return m, sendCmd(deps, text)
		case "up", "ctrl+k":
			msgs := deps.Engine.Messages()
			if m.selected < 0 {
				m.selected = len(msgs) - 1
			} else if m.selected > 0 {
				m.selected--
			}
			m.refresh(deps)
			return m, nil
		case "down", "ctrl+j":
			msgs := deps.Engine.Messages()
			if m.selected >= 0 && m.selected < len(msgs)-1 {
				m.selected++
			} else {
				m.selected = -1
			}
			m.refresh(deps)
			return m, nil
		case "ctrl+d":
			msgs := deps.Engine.Messages()
			if m.selected < 0 || m.selected >= len(msgs) {
				return m, nil
			}
			target := msgs[m.selected]
			if !target.Mine {
				// not ours: no prompt, no network call
				return m, nil
			}
			m.confirm = target.ID
			return m, nil
		}

	case MessagesLoadedMsg:
		if msg.Err != nil {
			m.statusErr = msg.Err.Error()
		}
		m.refresh(deps)
		return m, nil

	case SendResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.statusErr = msg.Err.Error()
		}
		m.refresh(deps)
		return m, nil

	case DeleteResultMsg:
		if msg.Err != nil {
			m.statusErr = msg.Err.Error()
		}
		m.selected = -1
		m.refresh(deps)
		return m, nil

	case EngineChangedMsg:
		m.refresh(deps)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh re-renders the message list into the viewport and pins the view
// to the bottom unless a message is selected.
func (m *chatModel) refresh(deps Deps) {
	if !m.ready {
		return
	}

	msgs := deps.Engine.Messages()
	if m.selected >= len(msgs) {
		m.selected = -1
	}

	var b strings.Builder
	if len(msgs) == 0 {
		b.WriteString(infoStyle.Render("Inga meddelanden än. Skriv något nedan!"))
	}
	for i, msg := range msgs {
		b.WriteString(m.renderMessage(msg, i == m.selected))
		b.WriteString("\n")
	}
	if deps.Engine.BotTyping() {
		b.WriteString(infoStyle.Render("skriver…") + "\n")
	}

	m.viewport.SetContent(b.String())
	if m.selected < 0 {
		m.viewport.GotoBottom()
	}
}

func (m *chatModel) renderMessage(msg chat.Message, selected bool) string {
	author := msg.Author
	if msg.Mine {
		author = "du"
	} else if author == "" {
		author = "okänd"
	}

	meta := metaStyle.Render(fmt.Sprintf("%s · %s", author, msg.CreatedAt.Local().Format("15:04")))
	bubble := theirBubbleStyle
	align := lipgloss.Left
	if msg.Mine {
		bubble = mineBubbleStyle
		align = lipgloss.Right
	}

	body := bubble.Render(msg.Text)
	block := lipgloss.JoinVertical(align, meta, body)
	if selected {
		block = selectedBubbleStyle.Render(block)
	}
	return lipgloss.PlaceHorizontal(m.viewport.Width, align, block)
}

func (m chatModel) view(deps Deps) string {
	if !m.ready {
		return infoStyle.Render("loading…")
	}

	header := titleStyle.Render("Konnect Chat")
	if cred := deps.Session.Credential(); cred.Identity.Username != "" {
		header += metaStyle.Render("  (" + cred.Identity.Username + ")")
	}

	status := ""
	switch {
	case m.confirm != "":
		status = errorStyle.Render("radera meddelandet? y/n")
	case m.statusErr != "":
		status = errorStyle.Render(m.statusErr)
	case m.busy:
		status = infoStyle.Render("skickar…")
	case deps.Engine.Phase() == chat.PhaseLoading:
		status = infoStyle.Render("hämtar meddelanden…")
	}

	help := helpStyle.Render("enter: send • up/down: select • ctrl+d: delete • ctrl+l: log out • ctrl+c: quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		status,
		help,
	)
}
