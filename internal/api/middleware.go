package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ensure/internal/engine"

	"go.uber.org/zap"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, code int, errCode, message string, log *zap.Logger) {
	log.Error("API error", zap.String("code", errCode), zap.String("message", message))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := ErrorResponse{
		Error:   errCode,
		Message: message,
	}
	if errCode != "" {
		resp.Code = errCode
	}

	json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps workflow sentinel errors to HTTP responses
func writeEngineError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), log)
	case errors.Is(err, engine.ErrDuplicateKey):
		WriteError(w, http.StatusConflict, "duplicate_key", err.Error(), log)
	case errors.Is(err, engine.ErrValidation):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), log)
	case errors.Is(err, engine.ErrMissingReference):
		WriteError(w, http.StatusBadRequest, "missing_reference", err.Error(), log)
	case errors.Is(err, engine.ErrInsufficientFunds):
		WriteError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error(), log)
	case errors.Is(err, engine.ErrAlreadyRejected):
		WriteError(w, http.StatusConflict, "already_rejected", err.Error(), log)
	case errors.Is(err, engine.ErrNotEligible):
		WriteError(w, http.StatusConflict, "not_eligible", err.Error(), log)
	case errors.Is(err, engine.ErrReferenced):
		WriteError(w, http.StatusConflict, "referenced", err.Error(), log)
	case errors.Is(err, engine.ErrExpired):
		WriteError(w, http.StatusGone, "expired", err.Error(), log)
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), log)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RequestLogger logs HTTP requests and responses
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// WebSocket upgrades need the raw ResponseWriter
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
