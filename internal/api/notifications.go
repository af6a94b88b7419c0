package api

import "net/http"

func (s *Server) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	pref, err := s.notifications.Preferences(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, pref)
}

func (s *Server) handlePreferencesSave(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.PreferenceUpdate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pref, err := s.notifications.SavePreferences(r.Context(), caller(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, pref)
}

func (s *Server) handleTaskSettingsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	setting, err := s.notifications.TaskSettings(r.Context(), caller(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, setting)
}

func (s *Server) handleTaskSettingsSave(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.TaskSettingUpdate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setting, err := s.notifications.SaveTaskSettings(r.Context(), caller(r), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, setting)
}

func (s *Server) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	q, err := s.validator.NotificationListQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.notifications.List(r.Context(), caller(r), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.okPage(w, page.Notifications, Paginate(page.Page, page.PageSize, page.Total))
}

func (s *Server) handleNotificationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, codeInvalidNotificationID, "Notification")
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	in, err := s.validator.NotificationStatusUpdate(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.notifications.UpdateStatus(r.Context(), caller(r), id, in); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.notifications.Dashboard(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, d)
}
