package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as JSON with the given status code. Responses are never
// cached since most carry session bound data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError reports err as {"error": message} with the status of its kind.
// Server side failures are logged with their cause and answered generically.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errx.KindOf(err)
	if kind == errx.KindServer || kind == errx.KindUnknown || kind == errx.KindNetwork {
		slogx.FromContext(r.Context()).Error("request failed", "kind", kind.String(), "err", err)
	}
	WriteJSON(w, kind.Status(), ErrorResponse{Error: errx.Message(err)})
}

// DecodeJSON reads a JSON body into dst, rejecting bodies that are too
// large or malformed with a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errx.Validation("request body is empty")
		case errors.As(err, &maxErr):
			return errx.Validation("request body too large")
		default:
			return errx.Wrap(errx.KindValidation, "invalid JSON body", err)
		}
	}
	if dec.More() {
		return errx.Validation("request body must contain a single JSON value")
	}
	return nil
}
