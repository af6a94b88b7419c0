package api

import (
	"net/http"
)

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.TaskCreate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	task, err := s.tasks.Create(r.Context(), caller(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusCreated, task)
}

func (s *Server) handleTaskSearch(w http.ResponseWriter, r *http.Request) {
	q, err := s.validator.SearchQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.tasks.Search(r.Context(), caller(r), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.okPage(w, res.Tasks, Paginate(res.Page, res.PageSize, res.Total))
}

func (s *Server) handleDueDateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.DueDateUpdate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	task, err := s.tasks.UpdateDueDate(r.Context(), caller(r), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, task)
}

func (s *Server) handleDueDateRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.RemoveDueDate(r.Context(), caller(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, task)
}

func (s *Server) handlePriorityChange(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.PriorityUpdate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	task, err := s.tasks.ChangePriority(r.Context(), caller(r), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, task)
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.CompletionUpdate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	task, err := s.tasks.SetCompletion(r.Context(), caller(r), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, task)
}

func (s *Server) handlePriorityList(w http.ResponseWriter, r *http.Request) {
	q, err := s.validator.PriorityListQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	listing, err := s.priorities.List(r.Context(), caller(r), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, listing)
}

func (s *Server) handlePriorityDistribution(w http.ResponseWriter, r *http.Request) {
	q, err := s.validator.DistributionQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := s.priorities.Distribution(r.Context(), caller(r), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, rows)
}

func (s *Server) handlePriorityHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	rows, err := s.priorities.History(r.Context(), caller(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, rows)
}
