package api

import "errors"

// Error kinds for remote API failures.
const (
	KindCsrf               = "csrf"
	KindInvalidCredentials = "invalid_credentials"
	KindValidation         = "validation"
	KindAccountExists      = "account_exists"
	KindRequest            = "request"
	KindUnknown            = "unknown"
)

// Error wraps a kind, the HTTP status that produced it (0 for transport
// failures), and a human-readable message. Every failure is terminal: the
// client never retries, it surfaces the error to the caller.
type Error struct {
	Kind    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func apiError(kind string, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg}
}

// IsKind reports whether err is an api.Error of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// IsAccountExists reports whether err denotes a duplicate-account condition.
func IsAccountExists(err error) bool { return IsKind(err, KindAccountExists) }

// IsInvalidCredentials reports whether err denotes a failed credential check.
func IsInvalidCredentials(err error) bool { return IsKind(err, KindInvalidCredentials) }

// IsValidation reports whether err denotes a rejected request body.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
