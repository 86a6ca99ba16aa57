package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures at the sync core boundary.
type Kind string

const (
	// KindValidation: bad title or url. Never reaches the network.
	KindValidation Kind = "VALIDATION"
	// KindAuth: no authenticated owner.
	KindAuth Kind = "AUTH"
	// KindStore: list/create/delete failed at the remote store. Retry is user initiated.
	KindStore Kind = "STORE"
	// KindSignalParse: malformed fallback payload. Logged and dropped.
	KindSignalParse Kind = "SIGNAL_PARSE"
)

// User visible messages.
const (
	MsgInvalidInput      = "Enter a valid title and URL."
	MsgInvalidPayload    = "Title and a valid URL are required."
	MsgMissingID         = "Missing bookmark id."
	MsgUnauthorized      = "Unauthorized"
	MsgLoadFailed        = "Failed to load bookmarks."
	MsgRefreshFailed     = "Failed to refresh bookmarks."
	MsgSaveFailed        = "Failed to save bookmark."
	MsgAddFailed         = "Failed to add bookmark."
	MsgDeleteFailed      = "Failed to delete bookmark."
	MsgInitialLoadFailed = "Could not load existing bookmarks. You can still add new ones."
)

// HTTPStatus returns the status the HTTP surface answers with for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindSignalParse:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a user facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// Sentinels for errors.Is checks. Matching is by Kind only.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrAuth        = &Error{Kind: KindAuth}
	ErrStore       = &Error{Kind: KindStore}
	ErrSignalParse = &Error{Kind: KindSignalParse}
)

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Auth(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

func Store(msg string, cause error) *Error {
	return &Error{Kind: KindStore, Message: msg, cause: cause}
}

func SignalParse(cause error) *Error {
	return &Error{Kind: KindSignalParse, Message: "malformed signal payload", cause: cause}
}

// KindOf extracts the Kind of err, defaulting to KindStore for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Message returns the user facing text of err, or fallback for foreign errors.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
