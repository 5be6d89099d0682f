package api

import (
	"bytes"
	"encoding/json"
)

// Request and response bodies for the remote Konnect API. Paths, methods and
// field names must stay bit-exact with what the service expects.

type csrfResponse struct {
	CsrfToken string `json:"csrfToken"`
}

type tokenRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CsrfToken string `json:"csrfToken"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// RegisterParams carries the fields of the registration form.
type RegisterParams struct {
	Username string
	Password string
	Email    string
	Avatar   string
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	CsrfToken string `json:"csrfToken"`
}

type createMessageRequest struct {
	Text      string `json:"text"`
	CsrfToken string `json:"csrfToken"`
}

type deleteMessageRequest struct {
	CsrfToken string `json:"csrfToken"`
}

// FlexString decodes a JSON string, number, or null into a string. Konnect
// deployments disagree on whether ids and timestamps are numbers or strings.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	// bare number or bool; keep the literal text
	*f = FlexString(data)
	return nil
}

// WireMessage is a message as the server returns it. Author information
// appears under several possible field names depending on the deployment;
// all candidates are captured and resolved during normalization.
type WireMessage struct {
	ID        FlexString `json:"id"`
	Text      string     `json:"text"`
	Content   string     `json:"content"`
	CreatedAt FlexString `json:"createdAt"`
	Username  string     `json:"username"`
	User      string     `json:"user"`
	Author    string     `json:"author"`
	From      string     `json:"from"`
	UserID    FlexString `json:"userId"`
	UserIDAlt FlexString `json:"user_id"`
	AuthorID  FlexString `json:"authorId"`
}

// AuthorName returns the first populated author-name candidate.
func (m WireMessage) AuthorName() string {
	for _, candidate := range []string{m.Username, m.User, m.Author, m.From} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// AuthorIdentifier returns the first populated author-id candidate.
func (m WireMessage) AuthorIdentifier() string {
	for _, candidate := range []FlexString{m.UserID, m.UserIDAlt, m.AuthorID} {
		if candidate != "" {
			return string(candidate)
		}
	}
	return ""
}

// Body returns the message text, falling back to the alternate content field.
func (m WireMessage) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Content
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// errorText extracts a human-readable message from a raw response body:
// structured message field, then error field, then the raw text, then the
// supplied fallback. Malformed JSON is treated as absent, never raised.
func errorText(raw []byte, fallback string) string {
	var body errorBody
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if s := string(bytes.TrimSpace(raw)); s != "" {
		return s
	}
	return fallback
}
