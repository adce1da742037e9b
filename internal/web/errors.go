package web

// errors.go writes every API error the same way:
//  1. Handler encounters an error and calls s.respondError(w, r, err)
//  2. The error is mapped via MapError to a code and status
//  3. The technical error is logged with the request ID for correlation
//  4. The client gets {"error","message","action","code"}

import (
	"net/http"

	"github.com/JonMunkholm/recipebox/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Debug("request error", attrs...)
	}

	respondErrorJSON(w, msg)
}

// respondErrorJSON writes msg as a JSON error body with msg.Status.
func respondErrorJSON(w http.ResponseWriter, msg UserMessage) {
	writeJSONStatus(w, msg.Status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
