package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotConfigured is returned when BaseURL or APIKey is empty.
var ErrNotConfigured = errors.New("authsdk: identity provider url or api key not configured")

// ErrNoServiceKey is returned by admin calls on a client without a service key.
var ErrNoServiceKey = errors.New("authsdk: service key required for admin operations")

// Error is a rejection from the provider.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("authsdk: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authsdk: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// errorBody covers the error shapes GoTrue has used across versions.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func parseErrorResponse(resp *http.Response, body []byte) *Error {
	e := &Error{StatusCode: resp.StatusCode}

	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return e
	}

	e.Code = firstNonEmpty(b.ErrorCode, b.Error, codeString(b.Code))
	e.Message = firstNonEmpty(b.Msg, b.ErrorDescription, b.Message, b.Error, http.StatusText(resp.StatusCode))
	return e
}

// codeString keeps string codes and drops the numeric status some
// versions put in "code".
func codeString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
