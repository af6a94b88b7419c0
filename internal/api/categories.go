package api

import "net/http"

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, cats)
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.CategoryCreate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cat, err := s.categories.Create(r.Context(), caller(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusCreated, cat)
}
