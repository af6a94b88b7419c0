package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskhub/internal/identity"
	"taskhub/internal/metrics"
	"taskhub/internal/model"
	"taskhub/internal/ratelimit"
	"taskhub/internal/repository"
	"taskhub/internal/service"
	"taskhub/internal/validation"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	calls  []string
	params []repository.Params
	fn     func(name string, p repository.Params) ([]repository.RecordSet, error)
}

func (r *recorder) exec() service.ExecutorFunc {
	return func(_ context.Context, name string, p repository.Params) ([]repository.RecordSet, error) {
		r.calls = append(r.calls, name)
		r.params = append(r.params, p)
		if r.fn == nil {
			return nil, nil
		}
		return r.fn(name, p)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type fakeLimiter struct {
	res ratelimit.Result
	err error
}

func (f fakeLimiter) Allow(context.Context, string) (ratelimit.Result, error) { return f.res, f.err }

func newTestServer(rec *recorder, tweak func(*Deps)) http.Handler {
	exec := rec.exec()
	now := func() time.Time { return fixedNow }
	d := Deps{
		Tasks:         service.NewTaskService(exec),
		Priorities:    service.NewPriorityService(exec),
		Categories:    service.NewCategoryService(exec),
		Notifications: service.NewNotificationService(exec),
		Validator:     validation.New(now),
		Identity:      identity.Static{ID: identity.Identity{AccountID: 7, UserID: 3}},
		Health:        pinger{},
		Now:           now,
	}
	if tweak != nil {
		tweak(&d)
	}
	return New(d).Routes()
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		Page      *int   `json:"page"`
		PageSize  int    `json:"pageSize"`
		Total     int64  `json:"total"`
		PageCount int    `json:"pageCount"`
		Timestamp string `json:"timestamp"`
	} `json:"metadata"`
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Timestamp string `json:"timestamp"`
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body err=%v (body=%s)", method, target, err, rr.Body.String())
	}
	return rr, env
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		page, size int
		total      int64
		want       Pagination
	}{
		{1, 20, 45, Pagination{Page: 1, PageSize: 20, Total: 45, PageCount: 3}},
		{1, 20, 40, Pagination{Page: 1, PageSize: 20, Total: 40, PageCount: 2}},
		{3, 10, 0, Pagination{Page: 3, PageSize: 10, Total: 0, PageCount: 0}},
		{1, 0, 21, Pagination{Page: 1, PageSize: 20, Total: 21, PageCount: 2}},
	}
	for _, tc := range cases {
		if got := Paginate(tc.page, tc.size, tc.total); got != tc.want {
			t.Fatalf("Paginate(%d, %d, %d)=%+v, want %+v", tc.page, tc.size, tc.total, got, tc.want)
		}
	}
}

func TestSearchEchoesRequestedPage(t *testing.T) {
	rec := &recorder{fn: func(string, repository.Params) ([]repository.RecordSet, error) {
		return []repository.RecordSet{
			repository.Set([]model.Task{}),
			repository.Set([]model.CountRow{{TotalCount: 2}}),
		}, nil
	}}
	rr, env := do(t, newTestServer(rec, nil), http.MethodGet, "/api/v1/internal/task/search?page=5", "")

	if rr.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	m := env.Metadata
	if m.Page == nil || *m.Page != 5 || m.PageSize != 20 || m.Total != 2 || m.PageCount != 1 {
		t.Fatalf("metadata=%+v", m)
	}
	if string(env.Data) != "[]" {
		t.Fatalf("data=%s, want []", env.Data)
	}
	if m.Timestamp != "2025-06-01T09:00:00Z" {
		t.Fatalf("timestamp=%q", m.Timestamp)
	}
	if got := rec.params[0]["idAccount"]; got != int64(7) {
		t.Fatalf("idAccount=%v, want the resolved account", got)
	}
}

func TestInvalidTaskIDSkipsService(t *testing.T) {
	routes := []struct {
		method, path, body string
	}{
		{http.MethodPatch, "/due-date", `{"dueDate":"2025-06-10"}`},
		{http.MethodDelete, "/due-date", ""},
		{http.MethodPatch, "/priority", `{"priority":2}`},
		{http.MethodPatch, "/completion", `{"completed":true}`},
		{http.MethodGet, "/priority-history", ""},
		{http.MethodGet, "/notification-settings", ""},
		{http.MethodPut, "/notification-settings", `{"usar_config_personalizada":false}`},
	}
	rec := &recorder{}
	h := newTestServer(rec, nil)
	for _, rt := range routes {
		for _, id := range []string{"abc", "0", "-3"} {
			target := "/api/v1/internal/task/" + id + rt.path
			rr, env := do(t, h, rt.method, target, rt.body)
			if rr.Code != http.StatusBadRequest || env.Error.Code != codeInvalidTaskID {
				t.Fatalf("%s %s: status=%d code=%s", rt.method, target, rr.Code, env.Error.Code)
			}
		}
	}
	rr, env := do(t, h, http.MethodPatch, "/api/v1/internal/notification/x", `{"readStatus":"lida"}`)
	if rr.Code != http.StatusBadRequest || env.Error.Code != codeInvalidNotificationID {
		t.Fatalf("notification: status=%d code=%s", rr.Code, env.Error.Code)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("service called: %v", rec.calls)
	}
}

func TestRequestTimeoutBoundsHandlerContext(t *testing.T) {
	var deadlines []time.Duration
	exec := service.ExecutorFunc(func(ctx context.Context, _ string, _ repository.Params) ([]repository.RecordSet, error) {
		dl, ok := ctx.Deadline()
		if !ok {
			return nil, errors.New("no deadline")
		}
		deadlines = append(deadlines, time.Until(dl))
		return nil, nil
	})
	for _, tc := range []struct {
		timeout, max time.Duration
	}{
		{0, defaultRequestTimeout},
		{250 * time.Millisecond, 250 * time.Millisecond},
	} {
		h := newTestServer(&recorder{}, func(d *Deps) {
			d.Categories = service.NewCategoryService(exec)
			d.RequestTimeout = tc.timeout
		})
		rr, _ := do(t, h, http.MethodGet, "/api/v1/internal/category", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("timeout %v: status=%d body=%s", tc.timeout, rr.Code, rr.Body.String())
		}
		got := deadlines[len(deadlines)-1]
		if got <= 0 || got > tc.max {
			t.Fatalf("timeout %v: deadline in %v, want within %v", tc.timeout, got, tc.max)
		}
	}
}

func TestValidationErrorListsViolations(t *testing.T) {
	rec := &recorder{}
	rr, env := do(t, newTestServer(rec, nil), http.MethodGet, "/api/v1/internal/task/search?page=0&priority=x&status=done", "")

	if rr.Code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("status=%d code=%s", rr.Code, env.Error.Code)
	}
	var details []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details err=%v", err)
	}
	paths := map[string]bool{}
	for _, d := range details {
		paths[d.Path] = true
	}
	for _, want := range []string{"query.page", "query.priority", "query.status"} {
		if !paths[want] {
			t.Fatalf("details=%+v, missing %s", details, want)
		}
	}
	if len(rec.calls) != 0 {
		t.Fatalf("service called: %v", rec.calls)
	}
}

func TestDomainErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{repository.ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND"},
		{repository.ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
		{repository.ErrDueDateInPast, http.StatusBadRequest, "DUE_DATE_IN_PAST"},
		{repository.ErrDueTimeRequiresDueDate, http.StatusBadRequest, "DUE_TIME_REQUIRES_DATE"},
	}
	for _, tc := range cases {
		rec := &recorder{fn: func(string, repository.Params) ([]repository.RecordSet, error) { return nil, tc.err }}
		rr, env := do(t, newTestServer(rec, nil), http.MethodPatch, "/api/v1/internal/task/12/priority", `{"priority":2}`)
		if rr.Code != tc.status || env.Error.Code != tc.code || env.Success {
			t.Fatalf("%v: status=%d code=%s", tc.err, rr.Code, env.Error.Code)
		}
	}
}

func TestNotificationNotFound(t *testing.T) {
	rec := &recorder{fn: func(string, repository.Params) ([]repository.RecordSet, error) {
		return nil, repository.ErrNotificationNotFound
	}}
	rr, env := do(t, newTestServer(rec, nil), http.MethodPatch, "/api/v1/internal/notification/4", `{"readStatus":"lida"}`)
	if rr.Code != http.StatusNotFound || env.Error.Code != "NOTIFICATION_NOT_FOUND" {
		t.Fatalf("status=%d code=%s", rr.Code, env.Error.Code)
	}
}

func TestInternalErrorDetails(t *testing.T) {
	fail := func(string, repository.Params) ([]repository.RecordSet, error) {
		return nil, errors.New("dial tcp 127.0.0.1:5432: connection refused")
	}

	rr, env := do(t, newTestServer(&recorder{fn: fail}, nil), http.MethodGet, "/api/v1/internal/category", "")
	if rr.Code != http.StatusInternalServerError || env.Error.Code != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("status=%d code=%s", rr.Code, env.Error.Code)
	}
	if !strings.Contains(string(env.Error.Details), "connection refused") {
		t.Fatalf("details=%s, want the cause outside production", env.Error.Details)
	}
	if env.Timestamp == "" {
		t.Fatalf("error envelope without timestamp")
	}

	prod := newTestServer(&recorder{fn: fail}, func(d *Deps) { d.Production = true })
	_, env = do(t, prod, http.MethodGet, "/api/v1/internal/category", "")
	if len(env.Error.Details) != 0 {
		t.Fatalf("details=%s leaked in production", env.Error.Details)
	}
}

func TestUnknownRoute(t *testing.T) {
	rr, env := do(t, newTestServer(&recorder{}, nil), http.MethodGet, "/api/v1/internal/nope", "")
	if rr.Code != http.StatusNotFound || env.Error.Code != codeNotFound {
		t.Fatalf("status=%d code=%s", rr.Code, env.Error.Code)
	}
}

func TestCreateTaskReturnsCreated(t *testing.T) {
	rec := &recorder{fn: func(_ string, p repository.Params) ([]repository.RecordSet, error) {
		return []repository.RecordSet{repository.Set([]model.Task{{ID: 99, Title: p["title"].(string), Priority: model.PriorityMedium}})}, nil
	}}
	rr, env := do(t, newTestServer(rec, nil), http.MethodPost, "/api/v1/internal/task", `{"title":"  Write report  "}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var task model.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task err=%v", err)
	}
	if task.ID != 99 || task.Title != "Write report" {
		t.Fatalf("task=%+v", task)
	}
	if rec.calls[0] != repository.ProcTaskCreate {
		t.Fatalf("calls=%v", rec.calls)
	}
}

func TestPriorityListGrouped(t *testing.T) {
	rec := &recorder{fn: func(string, repository.Params) ([]repository.RecordSet, error) {
		return []repository.RecordSet{repository.Set([]model.Task{
			{ID: 1, Priority: model.PriorityHigh},
			{ID: 2, Priority: model.PriorityLow},
		})}, nil
	}}
	rr, env := do(t, newTestServer(rec, nil), http.MethodGet, "/api/v1/internal/task/priority/list?groupByPriority=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	data := string(env.Data)
	high, medium, low := strings.Index(data, `"High"`), strings.Index(data, `"Medium":[]`), strings.Index(data, `"Low"`)
	if high < 0 || medium < 0 || low < 0 || !(high < medium && medium < low) {
		t.Fatalf("data=%s, want High, Medium, Low in order", data)
	}
}

func TestNotificationStatusUpdate(t *testing.T) {
	rec := &recorder{}
	rr, env := do(t, newTestServer(rec, nil), http.MethodPatch, "/api/v1/internal/notification/4", `{"readStatus":"lida"}`)
	if rr.Code != http.StatusOK || string(env.Data) != `{"success":true}` {
		t.Fatalf("status=%d data=%s", rr.Code, env.Data)
	}
	if got := rec.params[0]["idNotification"]; got != int64(4) {
		t.Fatalf("idNotification=%v", got)
	}
}

func TestUnresolvedIdentity(t *testing.T) {
	h := newTestServer(&recorder{}, func(d *Deps) { d.Identity = identity.Static{} })
	rr, env := do(t, h, http.MethodGet, "/api/v1/internal/category", "")
	if rr.Code != http.StatusUnauthorized || env.Error.Code != codeUnauthorized {
		t.Fatalf("status=%d code=%s", rr.Code, env.Error.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(&recorder{}, func(d *Deps) {
		d.Limiter = fakeLimiter{res: ratelimit.Result{Allowed: false, Limit: 60, RetryAfter: 12}}
	})
	rr, env := do(t, h, http.MethodGet, "/api/v1/internal/category", "")
	if rr.Code != http.StatusTooManyRequests || env.Error.Code != codeRateLimited {
		t.Fatalf("status=%d code=%s", rr.Code, env.Error.Code)
	}
	if rr.Header().Get("Retry-After") != "12" || rr.Header().Get("X-RateLimit-Limit") != "60" {
		t.Fatalf("headers=%v", rr.Header())
	}

	open := newTestServer(&recorder{}, func(d *Deps) {
		d.Limiter = fakeLimiter{err: errors.New("redis down")}
	})
	if rr, _ := do(t, open, http.MethodGet, "/api/v1/internal/category", ""); rr.Code != http.StatusOK {
		t.Fatalf("limiter failure: status=%d, want requests let through", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(&recorder{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"healthy"`) {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	down := newTestServer(&recorder{}, func(d *Deps) { d.Health = pinger{err: errors.New("closed")} })
	down.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), `"status":"unhealthy"`) {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMetricsRouteLabels(t *testing.T) {
	m := metrics.New()
	h := newTestServer(&recorder{}, func(d *Deps) { d.Metrics = m })
	do(t, h, http.MethodGet, "/api/v1/internal/category", "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rr.Body.String()
	if !strings.Contains(out, `taskhub_http_requests_total{method="GET",route="/api/v1/internal/category`) {
		t.Fatalf("metrics output missing the category route:\n%s", out)
	}
	if strings.Contains(out, `route="unmatched",status="200"`) {
		t.Fatalf("matched request recorded as unmatched")
	}
}
