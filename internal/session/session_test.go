package session

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/identity"
	"github.com/vovakirdan/konnect-cli/internal/state"
)

func newTestStore(t *testing.T) (*Store, state.Store) {
	t.Helper()

	st, err := state.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create state store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	return NewStore(st, &logger), st
}

func TestLoginThenRestore_RoundTrip(t *testing.T) {
	sess, st := newTestStore(t)

	sess.Login("tok-abc", identity.Identity{Username: "alice", Email: "alice@example.com"})

	// simulate a process restart against the same persisted state
	logger := zerolog.Nop()
	reloaded := NewStore(st, &logger)
	reloaded.Restore()

	cred := reloaded.Credential()
	if !cred.Present() {
		t.Fatalf("expected restored session to be present")
	}
	if cred.Token != "tok-abc" {
		t.Fatalf("expected token tok-abc, got %q", cred.Token)
	}
	if cred.Identity.Username != "alice" || cred.Identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", cred.Identity)
	}
}

func TestRestore_NoStoredSession(t *testing.T) {
	sess, _ := newTestStore(t)

	sess.Restore()
	if sess.Credential().Present() {
		t.Fatalf("expected no session")
	}
}

func TestRestore_MalformedIdentityKeepsToken(t *testing.T) {
	sess, st := newTestStore(t)

	if err := st.Set(state.KeyAuthToken, "tok-abc"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := st.Set(state.KeyAuthUser, "{not json"); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	sess.Restore()

	cred := sess.Credential()
	if cred.Token != "tok-abc" {
		t.Fatalf("expected token to survive corrupt identity, got %q", cred.Token)
	}
	if !cred.Identity.IsZero() {
		t.Fatalf("expected empty identity, got %+v", cred.Identity)
	}
}

func TestLogout_IsIdempotent(t *testing.T) {
	sess, st := newTestStore(t)

	sess.Login("tok-abc", identity.Identity{Username: "alice"})
	sess.Logout()
	sess.Logout()

	if sess.Credential().Present() {
		t.Fatalf("expected credential to be absent")
	}
	if _, ok, _ := st.Get(state.KeyAuthToken); ok {
		t.Fatalf("expected persisted token to be removed")
	}
	if _, ok, _ := st.Get(state.KeyAuthUser); ok {
		t.Fatalf("expected persisted identity to be removed")
	}
}

func TestLogin_OverwritesPriorSession(t *testing.T) {
	sess, _ := newTestStore(t)

	sess.Login("tok-1", identity.Identity{Username: "alice"})
	sess.Login("tok-2", identity.Identity{Username: "bob"})

	cred := sess.Credential()
	if cred.Token != "tok-2" || cred.Identity.Username != "bob" {
		t.Fatalf("expected second login to win, got %+v", cred)
	}
}

func TestOnChange_FiresForEveryMutation(t *testing.T) {
	sess, _ := newTestStore(t)

	var calls int
	sess.OnChange(func() { calls++ })

	sess.Login("tok-1", identity.Identity{Username: "alice"})
	sess.Logout()

	if calls != 2 {
		t.Fatalf("expected 2 change notifications, got %d", calls)
	}
}
