// internal/api/respond.go
//
// JSON response helpers shared by every API handler.
//
// Context
// -------
// Success bodies are written as-is.  Failures always take the envelope
//
//	{"error":{"code":"…","message":"…","details":"…"}}
//
// where `details` carries the underlying cause and is only present when
// the process runs outside production.  Handlers never build that shape
// themselves; they return an error and call Error.
package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/apperr"
)

// exposeDetails toggles `details` in error bodies.  Off in production.
var exposeDetails atomic.Bool

// SetExposeDetails is called once from main after config load.
func SetExposeDetails(on bool) { exposeDetails.Store(on) }

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}

// Error maps err onto the envelope.  Unknown errors become SERVER_ERROR.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)

	payload := errorPayload{Code: e.Code, Message: e.Message}
	if exposeDetails.Load() {
		payload.Details = e.Details()
	}

	if e.Status >= http.StatusInternalServerError {
		zap.L().Error("api request failed",
			zap.String("code", e.Code),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	JSON(w, e.Status, errorBody{Error: payload})
}
