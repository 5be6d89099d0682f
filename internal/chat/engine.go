// Package chat maintains the authoritative in-memory message log: it merges
// server-fetched state with locally-originated sends, derives per-message
// ownership, and drives the simulated auto-reply.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/bot"
	"github.com/vovakirdan/konnect-cli/internal/session"
	"github.com/vovakirdan/konnect-cli/internal/state"
)

// Phase is the engine's lifecycle state for the current session.
type Phase int

const (
	// PhaseLoading means the initial fetch has not completed.
	PhaseLoading Phase = iota
	// PhaseReady means the log reflects at least one successful fetch.
	PhaseReady
	// PhaseError means the initial fetch failed; the log is empty.
	PhaseError
)

var (
	// ErrEmptyMessage is returned when input sanitizes down to nothing.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotOwner is returned when deleting a message the session does not own.
	ErrNotOwner = errors.New("not the message owner")
	// ErrNotLoggedIn is returned when an operation requires a credential.
	ErrNotLoggedIn = errors.New("not logged in")
)

// API is the slice of the remote client the engine needs.
type API interface {
	ListMessages(ctx context.Context, token string) ([]api.WireMessage, error)
	CreateMessage(ctx context.Context, token, text string) (*api.WireMessage, error)
	DeleteMessage(ctx context.Context, token, id string) error
}

// Options tunes the simulated auto-reply.
type Options struct {
	BotEnabled  bool
	BotDelayMin time.Duration
	BotDelayMax time.Duration
}

// Engine owns the message log and the owned-ids set. All mutations go
// through it; the bot timer is the only other goroutine that touches the
// log, and it does so under the engine's lock.
type Engine struct {
	mu       sync.Mutex
	api      API
	session  *session.Store
	state    state.Store
	bot      *bot.Responder
	log      *zerolog.Logger
	phase    Phase
	loadErr  string
	messages []Message
	owned    map[string]struct{}
	gen      int
	subs     []func()

	now   func() time.Time
	newID func() string
}

// New creates an engine. The owned-ids set is restored from local state so
// ownership survives a restart even when the server returns no author info.
func New(apiClient API, sess *session.Store, st state.Store, opts Options, logger *zerolog.Logger) *Engine {
	e := &Engine{
		api:     apiClient,
		session: sess,
		state:   st,
		log:     logger,
		phase:   PhaseLoading,
		owned:   map[string]struct{}{},
		now:     time.Now,
		newID:   func() string { return "local-" + uuid.NewString() },
	}
	e.restoreOwned()

	if opts.BotEnabled {
		e.bot = bot.New(opts.BotDelayMin, opts.BotDelayMax, e.appendBotReply, logger)
	}
	return e
}

// Load fetches the message list once and normalizes it into the log.
// Results arriving after the engine was reset (logout, view teardown) or
// after ctx was cancelled are discarded.
func (e *Engine) Load(ctx context.Context) error {
	cred := e.session.Credential()
	if !cred.Present() {
		return ErrNotLoggedIn
	}

	e.mu.Lock()
	e.phase = PhaseLoading
	e.loadErr = ""
	gen := e.gen
	e.mu.Unlock()

	wire, err := e.api.ListMessages(ctx, cred.Token)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || ctx.Err() != nil {
		// the view that asked for this fetch is gone
		return nil
	}

	if err != nil {
		e.phase = PhaseError
		e.loadErr = err.Error()
		e.messages = nil
		e.log.Error().Err(err).Msg("initial message fetch failed")
		return err
	}

	now := e.now()
	e.messages = make([]Message, 0, len(wire))
	for _, w := range wire {
		e.messages = append(e.messages, Normalize(w, now, e.newID))
	}
	e.phase = PhaseReady
	e.log.Info().Int("count", len(e.messages)).Msg("messages loaded")
	return nil
}

// Send sanitizes, posts, and appends the confirmed message. The log is only
// touched after the server accepts the message; a failed send changes
// nothing. On success the id joins the persisted owned-ids set and one bot
// reply is scheduled.
func (e *Engine) Send(ctx context.Context, text string) (Message, error) {
	clean := Sanitize(text)
	if clean == "" {
		return Message{}, ErrEmptyMessage
	}

	cred := e.session.Credential()
	if !cred.Present() {
		return Message{}, ErrNotLoggedIn
	}

	wire, err := e.api.CreateMessage(ctx, cred.Token, clean)
	if err != nil {
		return Message{}, err
	}

	e.mu.Lock()
	now := e.now()
	var msg Message
	if wire != nil {
		msg = Normalize(*wire, now, e.newID)
	} else {
		msg = Message{ID: e.newID(), CreatedAt: now}
	}
	// the server may omit fields for a just-created message; fill from
	// what we know locally
	if msg.Text == "" {
		msg.Text = clean
	}
	if msg.Author == "" {
		msg.Author = cred.Identity.Username
	}
	msg.Mine = true

	e.messages = append(e.messages, msg)
	e.owned[msg.ID] = struct{}{}
	e.persistOwnedLocked()
	e.mu.Unlock()

	if e.bot != nil {
		e.bot.Schedule(clean)
	}
	e.notify()
	return msg, nil
}

// Delete removes an owned message, server first, then the local log and the
// owned-ids set. Deleting a message the session does not own is refused
// before any network traffic.
func (e *Engine) Delete(ctx context.Context, id string) error {
	cred := e.session.Credential()
	if !cred.Present() {
		return ErrNotLoggedIn
	}
	if !e.CanDelete(id) {
		return ErrNotOwner
	}

	if err := e.api.DeleteMessage(ctx, cred.Token, id); err != nil {
		return err
	}

	e.mu.Lock()
	kept := e.messages[:0]
	for _, m := range e.messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	e.messages = kept
	delete(e.owned, id)
	e.persistOwnedLocked()
	e.mu.Unlock()

	e.notify()
	return nil
}

// CanDelete reports whether the ownership predicate holds for id.
func (e *Engine) CanDelete(id string) bool {
	cred := e.session.Credential()

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.messages {
		if m.ID == id {
			return Owned(m, cred.Identity, e.owned)
		}
	}
	return false
}

// Messages returns a copy of the log with ownership derived against the
// current identity, in arrival order.
func (e *Engine) Messages() []Message {
	cred := e.session.Credential()

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, len(e.messages))
	for i, m := range e.messages {
		m.Mine = Owned(m, cred.Identity, e.owned)
		out[i] = m
	}
	return out
}

// Phase returns the engine lifecycle state.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// LoadError returns the message of a failed initial fetch, if any.
func (e *Engine) LoadError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// BotTyping reports whether a simulated reply is pending.
func (e *Engine) BotTyping() bool {
	return e.bot != nil && e.bot.Pending()
}

// Reset discards the log and cancels any pending bot reply. In-flight
// fetches started before the reset are ignored when they land.
func (e *Engine) Reset() {
	if e.bot != nil {
		e.bot.Cancel()
	}

	e.mu.Lock()
	e.gen++
	e.phase = PhaseLoading
	e.loadErr = ""
	e.messages = nil
	e.mu.Unlock()
	e.notify()
}

// OnChange registers a callback fired after every log mutation, including
// bot replies arriving from their timer.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

func (e *Engine) notify() {
	e.mu.Lock()
	subs := make([]func(), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// appendBotReply adds a simulated reply to the log. It never touches the
// network and the message is owned by nobody.
func (e *Engine) appendBotReply(text string) {
	e.mu.Lock()
	e.messages = append(e.messages, Message{
		ID:        e.newID(),
		Text:      text,
		CreatedAt: e.now(),
		Author:    bot.AuthorName,
	})
	e.mu.Unlock()
	e.notify()
}

// restoreOwned loads the persisted owned-ids set. A malformed or missing
// entry is treated as empty.
func (e *Engine) restoreOwned() {
	raw, ok, err := e.state.Get(state.KeyMessageIDs)
	if err != nil || !ok {
		return
	}

	var ids []string
	if json.Unmarshal([]byte(raw), &ids) != nil {
		e.log.Warn().Msg("stored owned-ids set is malformed, starting empty")
		return
	}
	for _, id := range ids {
		e.owned[id] = struct{}{}
	}
}

// persistOwnedLocked writes the owned-ids set. Callers hold e.mu.
func (e *Engine) persistOwnedLocked() {
	ids := make([]string, 0, len(e.owned))
	for id := range e.owned {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := e.state.Set(state.KeyMessageIDs, string(raw)); err != nil {
		e.log.Warn().Err(err).Msg("failed to persist owned-ids set")
	}
}
