package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/identity"
	"github.com/vovakirdan/konnect-cli/internal/session"
	"github.com/vovakirdan/konnect-cli/internal/state"
)

type fakeAPI struct {
	mu         sync.Mutex
	listResp   []api.WireMessage
	listErr    error
	listHook   func()
	createResp *api.WireMessage
	createErr  error
	deleteErr  error
	lists      int
	creates    int
	deletes    int
}

func (f *fakeAPI) ListMessages(_ context.Context, _ string) ([]api.WireMessage, error) {
	f.mu.Lock()
	f.lists++
	hook := f.listHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.listResp, f.listErr
}

func (f *fakeAPI) CreateMessage(_ context.Context, _, _ string) (*api.WireMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	return f.createResp, f.createErr
}

func (f *fakeAPI) DeleteMessage(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return f.deleteErr
}

func newTestEngine(t *testing.T, fake *fakeAPI, opts Options) (*Engine, *session.Store, state.Store) {
	t.Helper()

	st, err := state.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create state store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	sess := session.NewStore(st, &logger)
	sess.Login("tok-abc", identity.Identity{Username: "alice", UserID: "42"})

	return New(fake, sess, st, opts, &logger), sess, st
}

func TestLoad_Success(t *testing.T) {
	fake := &fakeAPI{listResp: []api.WireMessage{
		{ID: "1", Text: "hello", Username: "bob"},
		{ID: "2", Content: "alt body", User: "alice"},
	}}
	e, _, _ := newTestEngine(t, fake, Options{})

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Phase() != PhaseReady {
		t.Fatalf("expected PhaseReady, got %v", e.Phase())
	}

	msgs := e.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" || msgs[0].Mine {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Text != "alt body" || !msgs[1].Mine {
		t.Fatalf("expected second message owned via name match: %+v", msgs[1])
	}
}

func TestLoad_FailureSurfacesAndLeavesLogEmpty(t *testing.T) {
	fake := &fakeAPI{listErr: errors.New("boom")}
	e, _, _ := newTestEngine(t, fake, Options{})

	if err := e.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if e.Phase() != PhaseError {
		t.Fatalf("expected PhaseError, got %v", e.Phase())
	}
	if e.LoadError() == "" {
		t.Fatalf("expected load error message")
	}
	if len(e.Messages()) != 0 {
		t.Fatalf("expected empty log after failed load")
	}
}

func TestLoad_ResultDiscardedAfterReset(t *testing.T) {
	fake := &fakeAPI{listResp: []api.WireMessage{{ID: "1", Text: "late"}}}
	e, _, _ := newTestEngine(t, fake, Options{})

	// the view is torn down while the fetch is in flight
	fake.listHook = func() { e.Reset() }

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(e.Messages()) != 0 {
		t.Fatalf("expected late fetch result to be discarded")
	}
}

func TestLoad_ResultDiscardedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &fakeAPI{listResp: []api.WireMessage{{ID: "1", Text: "late"}}}
	e, _, _ := newTestEngine(t, fake, Options{})

	fake.listHook = cancel

	if err := e.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(e.Messages()) != 0 {
		t.Fatalf("expected cancelled fetch result to be discarded")
	}
}

func TestSend_RejectsEmptyInputWithoutNetworkCall(t *testing.T) {
	fake := &fakeAPI{}
	e, _, _ := newTestEngine(t, fake, Options{})

	for _, input := range []string{"", "   ", "<>", "< > <"} {
		if _, err := e.Send(context.Background(), input); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage for %q, got %v", input, err)
		}
	}
	if fake.creates != 0 {
		t.Fatalf("expected no network calls, got %d", fake.creates)
	}
}

func TestSend_AppendsConfirmedMessageAndPersistsOwnership(t *testing.T) {
	fake := &fakeAPI{createResp: &api.WireMessage{ID: "srv-9", Text: "hej"}}
	e, _, st := newTestEngine(t, fake, Options{})

	msg, err := e.Send(context.Background(), "  hej  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID != "srv-9" || !msg.Mine {
		t.Fatalf("unexpected sent message: %+v", msg)
	}

	msgs := e.Messages()
	if len(msgs) != 1 || msgs[0].ID != "srv-9" {
		t.Fatalf("expected message in log, got %+v", msgs)
	}

	raw, ok, _ := st.Get(state.KeyMessageIDs)
	if !ok || raw != `["srv-9"]` {
		t.Fatalf("expected persisted owned-ids set, got %q", raw)
	}
}

func TestSend_SynthesizesIDWhenServerOmitsBody(t *testing.T) {
	fake := &fakeAPI{createResp: nil}
	e, _, _ := newTestEngine(t, fake, Options{})

	msg, err := e.Send(context.Background(), "hej")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" || msg.ID[:6] != "local-" {
		t.Fatalf("expected namespaced synthesized id, got %q", msg.ID)
	}
	if msg.Text != "hej" || msg.Author != "alice" {
		t.Fatalf("expected local fields filled in, got %+v", msg)
	}
}

func TestSend_FailureLeavesLogUnmodified(t *testing.T) {
	fake := &fakeAPI{createErr: errors.New("boom")}
	e, _, _ := newTestEngine(t, fake, Options{})

	if _, err := e.Send(context.Background(), "hej"); err == nil {
		t.Fatalf("expected send error")
	}
	if len(e.Messages()) != 0 {
		t.Fatalf("expected no speculative insert on failure")
	}
}

func TestOwnership_StableAcrossRestart(t *testing.T) {
	fake := &fakeAPI{createResp: &api.WireMessage{ID: "srv-9", Text: "hej"}}
	e, sess, st := newTestEngine(t, fake, Options{})

	if _, err := e.Send(context.Background(), "hej"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// restart: a fresh engine over the same state store; the server now
	// returns the message without any author fields
	fake.listResp = []api.WireMessage{{ID: "srv-9", Text: "hej"}}
	logger := zerolog.Nop()
	e2 := New(fake, sess, st, Options{}, &logger)
	if err := e2.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	msgs := e2.Messages()
	if len(msgs) != 1 || !msgs[0].Mine {
		t.Fatalf("expected ownership to survive restart, got %+v", msgs)
	}
}

func TestDelete_NotOwnedIsNoOp(t *testing.T) {
	fake := &fakeAPI{listResp: []api.WireMessage{{ID: "1", Text: "hi", Username: "bob"}}}
	e, _, _ := newTestEngine(t, fake, Options{})

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := e.Delete(context.Background(), "1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if fake.deletes != 0 {
		t.Fatalf("expected no network call for refused delete")
	}
	if len(e.Messages()) != 1 {
		t.Fatalf("expected message to remain")
	}
}

func TestDelete_OwnedRemovesFromLogAndSet(t *testing.T) {
	fake := &fakeAPI{createResp: &api.WireMessage{ID: "srv-9", Text: "hej"}}
	e, _, st := newTestEngine(t, fake, Options{})

	if _, err := e.Send(context.Background(), "hej"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := e.Delete(context.Background(), "srv-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fake.deletes != 1 {
		t.Fatalf("expected one delete call, got %d", fake.deletes)
	}
	if len(e.Messages()) != 0 {
		t.Fatalf("expected empty log after delete")
	}

	raw, ok, _ := st.Get(state.KeyMessageIDs)
	if !ok || raw != `[]` {
		t.Fatalf("expected owned-ids set emptied, got %q", raw)
	}
}

func TestDelete_ServerFailureKeepsMessage(t *testing.T) {
	fake := &fakeAPI{
		createResp: &api.WireMessage{ID: "srv-9", Text: "hej"},
		deleteErr:  errors.New("boom"),
	}
	e, _, _ := newTestEngine(t, fake, Options{})

	if _, err := e.Send(context.Background(), "hej"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := e.Delete(context.Background(), "srv-9"); err == nil {
		t.Fatalf("expected delete error")
	}
	if len(e.Messages()) != 1 {
		t.Fatalf("expected message kept after failed delete")
	}
}

func TestSend_SchedulesExactlyOneBotReply(t *testing.T) {
	fake := &fakeAPI{createResp: &api.WireMessage{ID: "srv-1", Text: "hej"}}
	e, _, _ := newTestEngine(t, fake, Options{
		BotEnabled:  true,
		BotDelayMin: 10 * time.Millisecond,
		BotDelayMax: 10 * time.Millisecond,
	})

	changed := make(chan struct{}, 8)
	e.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	if _, err := e.Send(context.Background(), "hej"); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		msgs := e.Messages()
		if len(msgs) == 2 {
			reply := msgs[1]
			if reply.Author != "konnect-bot" || reply.Mine {
				t.Fatalf("unexpected bot reply: %+v", reply)
			}
			return
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("timed out waiting for bot reply, have %d messages", len(e.Messages()))
		}
	}
}

func TestSend_SecondSendReplacesPendingReply(t *testing.T) {
	fake := &fakeAPI{createResp: &api.WireMessage{Text: "x"}}
	e, _, _ := newTestEngine(t, fake, Options{
		BotEnabled:  true,
		BotDelayMin: 60 * time.Millisecond,
		BotDelayMax: 60 * time.Millisecond,
	})

	if _, err := e.Send(context.Background(), "hej"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := e.Send(context.Background(), "bye bye"); err != nil {
		t.Fatalf("second send: %v", err)
	}

	time.Sleep(250 * time.Millisecond)

	var botReplies []Message
	for _, m := range e.Messages() {
		if m.Author == "konnect-bot" {
			botReplies = append(botReplies, m)
		}
	}
	if len(botReplies) != 1 {
		t.Fatalf("expected exactly one bot reply after rapid sends, got %d", len(botReplies))
	}
}

func TestSend_RequiresCredential(t *testing.T) {
	fake := &fakeAPI{}
	e, sess, _ := newTestEngine(t, fake, Options{})
	sess.Logout()

	if _, err := e.Send(context.Background(), "hej"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := e.Load(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn from load, got %v", err)
	}
}
