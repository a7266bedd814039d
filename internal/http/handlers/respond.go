package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string                 `json:"error"`
	Fields []apiclient.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// statusFor maps the error taxonomy to the status the dashboard sees.
// Aggregate failures are checked first because they unwrap to the
// per-candidate errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apiclient.ErrAggregateFailure):
		return http.StatusBadGateway
	case errors.Is(err, apiclient.ErrUnauthenticated), errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apiclient.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apiclient.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apiclient.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apiclient.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apiclient.ErrRequestRejected):
		return http.StatusBadRequest
	case errors.Is(err, apiclient.ErrServer),
		errors.Is(err, apiclient.ErrNetworkUnreachable),
		errors.Is(err, apiclient.ErrUnrecognizedShape):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *apiclient.ValidationError
	if errors.As(err, &verr) {
		resp.Error = apiclient.ErrValidationFailed.Error()
		resp.Fields = verr.Fields
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "kind", apiclient.KindLabel(err), "error", err)
		if status == http.StatusInternalServerError {
			resp.Error = "internal error"
		}
	case status == http.StatusUnauthorized:
		logger.Info("request not authenticated", "path", r.URL.Path, "kind", apiclient.KindLabel(err))
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxJSONBody {
		return fmt.Errorf("body exceeds %d bytes", maxJSONBody)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// pageParams reads page and size; absent or malformed values become 0 and
// are defaulted by listing.Paginate.
func pageParams(r *http.Request) (page, size int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	size, _ = strconv.Atoi(q.Get("size"))
	return page, size
}
