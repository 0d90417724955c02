package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
)

// responder writes JSON responses for a handler and logs server-side
// failures with that handler's logger.
type responder struct {
	log logger.Logger
}

func newResponder(log logger.Logger) responder {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return responder{log: log}
}

func (rs responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := encodeJSON(w, status, data); err != nil {
		rs.log.Error("failed to encode JSON response", map[string]interface{}{"error": err.Error()})
	}
}

// writeError writes an error JSON response, using AppError status codes
// when available. Causes of 5xx responses are logged, never sent.
func (rs responder) writeError(w http.ResponseWriter, err error) {
	if appErr, ok := domain.AsAppError(err); ok {
		if appErr.Code >= http.StatusInternalServerError {
			rs.log.WithError(err).Error("request failed", nil)
		}
		rs.writeJSON(w, appErr.Code, map[string]string{"error": appErr.Message})
		return
	}
	rs.log.WithError(err).Error("unhandled error", nil)
	rs.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// JSON writes a JSON response with the given status code. It is meant for
// fixed payloads such as middleware rejections.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	_ = encodeJSON(w, status, data)
}

func encodeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest("invalid JSON body")
	}
	return nil
}
