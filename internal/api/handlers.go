package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/apperr"
)

// pathID parses the {id} segment. On failure it writes the 400 itself.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, code, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.problem(w, http.StatusBadRequest, code, what+" id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return s.pathID(w, r, codeInvalidTaskID, "Task")
}

// readBody reads at most maxBodyBytes of the request body.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "could not read request body"
		if errors.As(err, &tooLarge) {
			msg = "request body is too large"
		}
		s.fail(w, r, apperr.Validation([]apperr.Violation{{Path: "body", Message: msg}}))
		return nil, false
	}
	return body, true
}
