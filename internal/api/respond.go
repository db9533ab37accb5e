package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/better-wallet/linewallet/internal/logger"
	apperrors "github.com/better-wallet/linewallet/pkg/errors"
)

var errMethodNotAllowed = apperrors.New(
	apperrors.ErrCodeBadRequest,
	"Method not allowed",
	http.StatusMethodNotAllowed,
)

// decodeJSON decodes exactly one JSON object with no unknown fields
func decodeJSON(r *http.Request, dst interface{}) *apperrors.AppError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.NewWithDetail(
				apperrors.ErrCodeBadRequest,
				"Request body too large",
				fmt.Sprintf("limit is %d bytes", maxErr.Limit),
				http.StatusRequestEntityTooLarge,
			)
		}
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("request body is required")
		}
		return apperrors.InvalidInput(fmt.Sprintf("invalid request body: %v", err))
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.InvalidInput("request body must contain a single JSON object")
	}

	return nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(err)
}

// writeServiceError maps a service error to its HTTP response
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		logger.Error(r.Context(), "unexpected error", "path", r.URL.Path, "error", err)
		appErr = apperrors.ErrInternalError
	}
	s.writeError(w, appErr)
}
