package ui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/chat"
	"github.com/vovakirdan/konnect-cli/internal/identity"
	"github.com/vovakirdan/konnect-cli/internal/session"
	"github.com/vovakirdan/konnect-cli/internal/state"
)

func testDeps(t *testing.T) Deps {
	t.Helper()

	logger := zerolog.Nop()
	st, err := state.New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sess := session.NewStore(st, &logger)
	// The client points at a closed port; these tests never hit the network.
	client := api.New("http://127.0.0.1:1", time.Second, &logger)
	engine := chat.New(client, sess, st, chat.Options{}, &logger)

	return Deps{API: client, Session: sess, Engine: engine, Log: &logger}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestGuestStartsOnLogin(t *testing.T) {
	m := NewModel(testDeps(t))

	view := m.View()
	if !strings.Contains(view, "log in") {
		t.Fatalf("expected login view, got:\n%s", view)
	}
}

func TestRestoredSessionStartsOnChat(t *testing.T) {
	deps := testDeps(t)
	deps.Session.Login("token-abc", identity.Identity{Username: "alice"})

	sized, _ := NewModel(deps).Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	view := sized.View()
	if !strings.Contains(view, "Konnect Chat") {
		t.Fatalf("expected chat view, got:\n%s", view)
	}
}

func TestRegisterUnreachableWhenLoggedIn(t *testing.T) {
	deps := testDeps(t)
	deps.Session.Login("token-abc", identity.Identity{Username: "alice"})

	sized, _ := NewModel(deps).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ := sized.Update(keyMsg("ctrl+r"))

	view := next.View()
	if strings.Contains(view, "register") {
		t.Fatalf("register view reachable with a live session:\n%s", view)
	}
}

func TestCtrlRSwitchesToRegister(t *testing.T) {
	m := NewModel(testDeps(t))

	next, _ := m.Update(keyMsg("ctrl+r"))
	view := next.View()
	if !strings.Contains(view, "register") {
		t.Fatalf("expected register view, got:\n%s", view)
	}

	back, _ := next.Update(keyMsg("ctrl+l"))
	if !strings.Contains(back.View(), "log in") {
		t.Fatalf("expected login view after ctrl+l, got:\n%s", back.View())
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	deps := testDeps(t)
	deps.Session.Login("token-abc", identity.Identity{Username: "alice"})

	m := NewModel(deps)
	next, _ := m.Update(keyMsg("ctrl+l"))

	if deps.Session.Credential().Present() {
		t.Fatal("credential survived logout")
	}
	if !strings.Contains(next.View(), "log in") {
		t.Fatalf("expected login view after logout, got:\n%s", next.View())
	}
}
