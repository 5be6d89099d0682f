package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/identity"
)

// Message is the client's view of a chat message. Author and AuthorID are
// captured from whatever the server happened to send; Mine is derived, never
// stored on the server.
type Message struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Author    string
	AuthorID  string
	Mine      bool
}

// Sanitize strips angle brackets and trims surrounding whitespace. An input
// that is empty after sanitization must not reach the network.
func Sanitize(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	return strings.TrimSpace(s)
}

// Normalize converts a wire message into the internal shape, substituting
// defaults for anything missing: text falls back to the alternate content
// field, the timestamp falls back to now, and a missing id is synthesized
// by the caller via makeID (synthesized ids live in their own namespace so
// they cannot collide with server ids).
func Normalize(w api.WireMessage, now time.Time, makeID func() string) Message {
	id := string(w.ID)
	if id == "" {
		id = makeID()
	}

	createdAt := parseTimestamp(string(w.CreatedAt))
	if createdAt.IsZero() {
		createdAt = now
	}

	return Message{
		ID:        id,
		Text:      w.Body(),
		CreatedAt: createdAt,
		Author:    w.AuthorName(),
		AuthorID:  w.AuthorIdentifier(),
	}
}

// parseTimestamp accepts RFC3339 strings as well as unix seconds or
// milliseconds. Anything unparseable yields the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1_000_000_000_000 { // milliseconds
			return time.UnixMilli(n)
		}
		return time.Unix(n, 0)
	}
	return time.Time{}
}

// Owned is the ownership predicate: a message belongs to the current user
// when its author name matches the identity's username, or its author
// identifier matches the identity's user id, or its id is in the persisted
// owned-ids set. The first two take precedence over set membership; the
// same predicate gates deletion.
func Owned(m Message, id identity.Identity, ownedIDs map[string]struct{}) bool {
	if m.Author != "" && id.Username != "" && m.Author == id.Username {
		return true
	}
	if m.AuthorID != "" && id.UserID != "" && m.AuthorID == id.UserID {
		return true
	}
	_, ok := ownedIDs[m.ID]
	return ok
}
