package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Veraticus/invoice-mapper/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func sendError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	switch common.KindOf(err) {
	case common.KindInvalidList, common.KindInvalidInput:
		return http.StatusBadRequest
	case common.KindNoListConfigured:
		return http.StatusNotFound
	case common.KindRetrySelection:
		return http.StatusUnprocessableEntity
	case common.KindOCRFailure, common.KindMalformedCompletion, common.KindCompletion:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) sendEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	kind := common.KindOf(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "Request failed",
		"path", r.URL.Path,
		"status", status,
		"kind", kind,
		"error", err)

	sendJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}
