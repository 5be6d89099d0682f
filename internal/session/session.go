// Package session owns the client's credential: the bearer token and the
// identity record attached to it. It is the single writer of the persisted
// authToken/authUser keys and the sole source of truth for "logged in".
package session

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/identity"
	"github.com/vovakirdan/konnect-cli/internal/state"
)

// Credential is the bearer token plus the identity it belongs to.
type Credential struct {
	Token    string
	Identity identity.Identity
}

// Present reports whether a session exists. Token presence is the sole gate;
// expiry is the server's business and shows up as failed requests.
func (c Credential) Present() bool {
	return c.Token != ""
}

// Store holds the current credential and persists it across runs.
type Store struct {
	mu    sync.RWMutex
	cred  Credential
	subs  []func()
	state state.Store
	log   *zerolog.Logger
}

// NewStore creates a session store backed by st.
func NewStore(st state.Store, logger *zerolog.Logger) *Store {
	return &Store{state: st, log: logger}
}

// Restore rehydrates a persisted session. Run once at startup.
//
// A malformed identity record is skipped while token restoration still
// proceeds: a corrupt authUser entry must not strand a valid token. Storage
// failures are treated exactly like absent values.
func (s *Store) Restore() {
	token, ok, err := s.state.Get(state.KeyAuthToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read stored token")
		return
	}
	if !ok || token == "" {
		return
	}

	var id identity.Identity
	rawUser, ok, err := s.state.Get(state.KeyAuthUser)
	if err == nil && ok {
		if unmarshalErr := json.Unmarshal([]byte(rawUser), &id); unmarshalErr != nil {
			s.log.Warn().Err(unmarshalErr).Msg("stored identity is malformed, keeping token only")
			id = identity.Identity{}
		}
	}
	if claims, ok := identity.FromToken(token); ok {
		id = id.Merge(claims)
	}

	s.mu.Lock()
	s.cred = Credential{Token: token, Identity: id}
	s.mu.Unlock()
	s.notify()

	s.log.Info().Str("username", id.Username).Msg("session restored")
}

// Login installs a new credential, overwriting any prior session, and
// persists it. Idempotent; persistence failures are logged, not surfaced.
func (s *Store) Login(token string, id identity.Identity) {
	if claims, ok := identity.FromToken(token); ok {
		id = id.Merge(claims)
	}

	s.mu.Lock()
	s.cred = Credential{Token: token, Identity: id}
	s.mu.Unlock()

	if err := s.state.Set(state.KeyAuthToken, token); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token")
	}
	if raw, err := json.Marshal(id); err == nil {
		if err := s.state.Set(state.KeyAuthUser, string(raw)); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist identity")
		}
	}
	s.notify()
}

// Logout clears the credential and removes the persisted keys. No network
// call is made; calling it twice is the same as calling it once.
func (s *Store) Logout() {
	s.mu.Lock()
	s.cred = Credential{}
	s.mu.Unlock()

	if err := s.state.Delete(state.KeyAuthToken); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove stored token")
	}
	if err := s.state.Delete(state.KeyAuthUser); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove stored identity")
	}
	s.notify()
}

// Credential returns the current credential.
func (s *Store) Credential() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// OnChange registers a callback invoked after every login, logout, or
// restore. Guards subscribe here so route decisions track the credential.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}
