package apperrors

import (
	"errors"
	"sort"
	"strings"
)

// MetadataAccepted holds the comma separated list of identifiers a caller may use instead.
const MetadataAccepted = "accepted"

var (
	ErrInvalidInput     = New(CodeInvalidInput, "invalid input")
	ErrNotFound         = New(CodeNotFound, "not found")
	ErrSessionNotFound  = New(CodeSessionNotFound, "session not found")
	ErrNoActiveSession  = New(CodeNoActiveSession, "no active session")
	ErrInvalidState     = New(CodeInvalidTransition, "invalid transition")
	ErrPersistence      = New(CodePersistenceFailure, "persistence failure")
	ErrConclusionFailed = New(CodeConclusionFailure, "conclusion side effect failed")
)

// Error is the coded error shared by every module.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first coded error in the chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// IsCoded reports whether err already carries a code.
func IsCoded(err error) bool {
	var coded *Error
	return errors.As(err, &coded)
}

// Metadata returns the metadata of the first coded error in the chain.
func Metadata(err error) map[string]string {
	var coded *Error
	if errors.As(err, &coded) && coded.Metadata != nil {
		return coded.Metadata
	}
	return map[string]string{}
}

// Accepted returns the accepted identifier set attached to err, if any.
func Accepted(err error) []string {
	raw := Metadata(err)[MetadataAccepted]
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// JoinAccepted renders ids in stable order for MetadataAccepted.
func JoinAccepted(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
