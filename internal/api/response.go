package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/logging"
	"taskhub/internal/validation"
)

const (
	codeInvalidTaskID         = "INVALID_TASK_ID"
	codeInvalidNotificationID = "INVALID_NOTIFICATION_ID"
	codeNotFound              = "NOT_FOUND"
	codeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	codeRateLimited           = "RATE_LIMITED"
	codeUnauthorized          = "UNAUTHORIZED"
)

// Pagination is list metadata. Page and PageSize are the requested values.
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	PageCount int   `json:"pageCount"`
}

// Paginate is the single place pageCount is derived.
func Paginate(page, pageSize int, total int64) Pagination {
	if pageSize <= 0 {
		pageSize = validation.DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	size := int64(pageSize)
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		PageCount: int((total + size - 1) / size),
	}
}

type metadata struct {
	*Pagination
	Timestamp string `json:"timestamp"`
}

type successEnvelope struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data"`
	Metadata metadata `json:"metadata"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     errorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{
		Success:  true,
		Data:     data,
		Metadata: metadata{Timestamp: s.timestamp()},
	})
}

func (s *Server) okPage(w http.ResponseWriter, data any, p Pagination) {
	writeJSON(w, http.StatusOK, successEnvelope{
		Success:  true,
		Data:     data,
		Metadata: metadata{Pagination: &p, Timestamp: s.timestamp()},
	})
}

func (s *Server) problem(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{
		Error:     errorBody{Code: code, Message: message, Details: details},
		Timestamp: s.timestamp(),
	})
}

// fail writes err according to its kind. Unknown errors become a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	if e == nil {
		e = apperr.Operational(err)
	}
	switch e.Kind {
	case apperr.KindValidation:
		s.problem(w, http.StatusBadRequest, e.Code, e.Message, e.Violations)
	case apperr.KindNotFound:
		s.problem(w, http.StatusNotFound, e.Code, e.Message, nil)
	case apperr.KindDomainRule:
		s.problem(w, http.StatusBadRequest, e.Code, e.Message, nil)
	default:
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		var details any
		if !s.production && e.Err != nil {
			details = e.Err.Error()
		}
		s.problem(w, http.StatusInternalServerError, apperr.CodeInternal, e.Message, details)
	}
}
