package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/identity"
)

const requestTimeout = 30 * time.Second

// Messages produced by background commands.

// LoginResultMsg reports the outcome of a credential exchange.
type LoginResultMsg struct {
	Err error
}

// RegisterResultMsg reports the outcome of an account registration.
type RegisterResultMsg struct {
	Err error
}

// MessagesLoadedMsg reports the outcome of the initial message fetch.
type MessagesLoadedMsg struct {
	Err error
}

// SendResultMsg reports the outcome of sending a message.
type SendResultMsg struct {
	Err error
}

// DeleteResultMsg reports the outcome of deleting a message.
type DeleteResultMsg struct {
	Err error
}

// EngineChangedMsg is pushed into the program whenever the message log
// mutates outside a command, e.g. when a bot reply timer fires.
type EngineChangedMsg struct{}

func loginCmd(deps Deps, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		csrf, err := deps.API.Csrf(ctx)
		if err != nil {
			return LoginResultMsg{Err: err}
		}
		token, err := deps.API.CreateToken(ctx, username, password, csrf)
		if err != nil {
			return LoginResultMsg{Err: err}
		}

		deps.Session.Login(token, identity.Identity{Username: username})
		return LoginResultMsg{}
	}
}

func registerCmd(deps Deps, username, password, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		csrf, err := deps.API.Csrf(ctx)
		if err != nil {
			return RegisterResultMsg{Err: err}
		}

		params := api.RegisterParams{Username: username, Password: password, Email: email}
		if err := deps.API.Register(ctx, params, csrf); err != nil {
			return RegisterResultMsg{Err: err}
		}
		return RegisterResultMsg{}
	}
}

func loadMessagesCmd(deps Deps) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return MessagesLoadedMsg{Err: deps.Engine.Load(ctx)}
	}
}

func sendCmd(deps Deps, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_, err := deps.Engine.Send(ctx, text)
		return SendResultMsg{Err: err}
	}
}

func deleteCmd(deps Deps, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return DeleteResultMsg{Err: deps.Engine.Delete(ctx, id)}
	}
}
