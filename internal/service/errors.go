package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/BloggingApp/feed-service/internal/storage"
)

// Kind classifies every failure surfaced to callers.
type Kind string

const (
	KindPermissionDenied Kind = "permission-denied"
	KindUnavailable      Kind = "unavailable"
	KindTimeout          Kind = "timeout"
	KindNotFound         Kind = "not-found"
	KindValidation       Kind = "validation"
	KindUnknown          Kind = "unknown"
)

var messages = map[Kind]string{
	KindPermissionDenied: "You do not have permission to perform this action.",
	KindUnavailable:      "The service is temporarily unavailable, please try again later.",
	KindTimeout:          "The operation timed out, check your network connection and try again.",
	KindNotFound:         "The post does not exist or has already been deleted.",
	KindValidation:       "Some fields are invalid, please check the form.",
	KindUnknown:          "Something went wrong, please try again later.",
}

// KindMessage returns the fixed user-facing text for kind.
func KindMessage(kind Kind) string {
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return messages[KindUnknown]
}

var (
	ErrNotSignedIn         = errors.New("sign in first")
	ErrIdentityUnavailable = errors.New("sign-in is unavailable, reload the page")
	ErrForbidden           = errors.New("you can only change your own posts")
	ErrUnknownCategory     = errors.New("unknown category")
)

type Error struct {
	Kind Kind
	Op   string
	// Detail is a user-safe explanation, used for validation failures.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
	case e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is what the UI shows: the validation detail when there is one,
// the fixed message of the kind otherwise.
func (e *Error) UserMessage() string {
	if e.Kind == KindValidation && e.Detail != "" {
		return e.Detail
	}
	return KindMessage(e.Kind)
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func validationError(op string, detail string) *Error {
	return &Error{Kind: KindValidation, Op: op, Detail: detail}
}

// Classify maps any error onto the taxonomy. Already classified errors pass through.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(op, KindTimeout, err)
	case errors.Is(err, storage.ErrNotFound):
		return newError(op, KindNotFound, err)
	case errors.Is(err, storage.ErrPermissionDenied):
		return newError(op, KindPermissionDenied, err)
	case errors.Is(err, storage.ErrUnavailable):
		return newError(op, KindUnavailable, err)
	case errors.Is(err, storage.ErrInvalidCursor):
		return &Error{Kind: KindValidation, Op: op, Detail: "invalid page cursor", Err: err}
	}

	return newError(op, KindUnknown, err)
}

// KindOf returns the kind of err, "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify("", err).Kind
}

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return Classify("", err).UserMessage()
}
