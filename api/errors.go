package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
)

const maxErrorBody = 64 << 10

// Error is a failed backend call. It unwraps to one of the sentinel errors in
// internal/errors so callers can branch with errors.Is.
type Error struct {
	Op         string // Operation that failed, e.g. "ListNotifications"
	StatusCode int    // HTTP status, 0 for transport failures
	Detail     string // Readable reason taken from the server's detail field
	Kind       error  // Sentinel category
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("[%s] %v: %s", e.Op, e.Kind, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("[%s] %v (status %d)", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %v (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	default:
		return apperrors.ErrServer
	}
}

func newResponseError(op string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(body),
		Kind:       kindForStatus(resp.StatusCode),
	}
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseDetail extracts the backend's "detail" field, which is either a plain
// message or a list of field validation issues.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var message string
	if err := json.Unmarshal(payload.Detail, &message); err == nil {
		return message
	}

	var issues []validationIssue
	if err := json.Unmarshal(payload.Detail, &issues); err == nil {
		parts := make([]string, 0, len(issues))
		for _, issue := range issues {
			if field := fieldName(issue.Loc); field != "" {
				parts = append(parts, field+": "+issue.Msg)
			} else {
				parts = append(parts, issue.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// fieldName drops the leading location ("body", "query") from a validation path.
func fieldName(loc []any) string {
	if len(loc) < 2 {
		return ""
	}
	parts := make([]string, 0, len(loc)-1)
	for _, p := range loc[1:] {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}

// UserMessage turns err into text for the user: the server's detail when it
// sent one, otherwise generic.
func UserMessage(err error, generic string) string {
	var apiErr *Error
	if apperrors.As(err, &apiErr) && apiErr.Detail != "" && !apperrors.Is(apiErr.Kind, apperrors.ErrTransport) {
		return apiErr.Detail
	}
	return generic
}
