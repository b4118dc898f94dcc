package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/alexanderramin/tally/internal/apperrors"
)

// writeJSON writes a JSON response with the provided status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to its status and structured body. Errors outside the
// domain taxonomy are logged and reported as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e, ok := apperrors.As(err)
	if !ok {
		logger.ErrorContext(r.Context(), "http_internal_error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    string(apperrors.CodeUnknown),
			Message: "internal error",
		}})
		return
	}

	status := e.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "http_request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", string(e.Code),
			"error", err,
		)
	}

	detail := errorDetail{
		Code:    string(e.Code),
		Message: e.Message,
		Field:   e.Field,
		Details: e.Metadata,
	}
	if e.Index != apperrors.NoIndex {
		idx := e.Index
		detail.Index = &idx
	}
	writeJSON(w, status, errorBody{Error: detail})
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.CodeInvalidArgument, "request body is required")
		}
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "malformed JSON body", err)
	}
	return nil
}
