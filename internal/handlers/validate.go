package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes caps JSON request bodies. Post content is the largest
// field a client sends.
const maxBodyBytes = 1 << 20

// Feed pagination limits accepted from the query string. The service
// clamps further.
const maxQueryOffset = 100_000

// decodeJSON reads a JSON request body into dst. It returns a message
// fit for the client on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) string {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return "Request body is required."
		case errors.As(err, &tooLarge):
			return "Request body is too large."
		case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
			return "Request body is not valid JSON."
		case errors.As(err, &typeErr):
			return fmt.Sprintf("Field %q has the wrong type.", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ") + "."
		default:
			return "Request body is not valid JSON."
		}
	}
	if dec.More() {
		return "Request body must hold a single JSON object."
	}
	return ""
}

// parsePage reads the limit and offset query parameters. Absent values
// are zero.
func parsePage(r *http.Request) (limit, offset int, msg string) {
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, "limit must be a non-negative integer."
		}
		limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxQueryOffset {
			return 0, 0, "offset must be a non-negative integer."
		}
		offset = n
	}
	return limit, offset, ""
}

// validateCode checks the shape of a sign-in or authenticator code.
func validateCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Code is required."
	}
	if len(code) != 6 {
		return "Code must be 6 digits."
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return "Code must be 6 digits."
		}
	}
	return ""
}
