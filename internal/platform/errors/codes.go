package apperrors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeUnknownSection     Code = "UNKNOWN_SECTION"
	CodeSectionNotStarted  Code = "SECTION_NOT_STARTED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeNoActiveSession    Code = "NO_ACTIVE_SESSION"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
	CodeConclusionFailure  Code = "CONCLUSION_FAILURE"
)

// HTTPStatus maps a code to the status a request handler should answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput, CodeUnknownSection:
		return http.StatusBadRequest
	case CodeInvalidTransition, CodeSectionNotStarted:
		return http.StatusConflict
	case CodeNotFound, CodeSessionNotFound, CodeNoActiveSession:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
