package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"taskhub/internal/apperr"
	"taskhub/internal/dto"
	"taskhub/internal/identity"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// --- fakes ---

type fakeExecutor struct {
	executeFn func(name string, p repository.Params) ([]repository.RecordSet, error)
	calls     []string
}

func (f *fakeExecutor) Execute(_ context.Context, name string, p repository.Params) ([]repository.RecordSet, error) {
	f.calls = append(f.calls, name)
	return f.executeFn(name, p)
}

func returning(sets ...repository.RecordSet) *fakeExecutor {
	return &fakeExecutor{executeFn: func(string, repository.Params) ([]repository.RecordSet, error) {
		return sets, nil
	}}
}

func failing(err error) *fakeExecutor {
	return &fakeExecutor{executeFn: func(string, repository.Params) ([]repository.RecordSet, error) {
		return nil, err
	}}
}

var who = identity.Identity{AccountID: 7, UserID: 3}

func defaultQuery() dto.SearchQuery {
	return dto.SearchQuery{Status: "all", SortBy: "relevance", SortDirection: "desc", Page: 1, PageSize: 20}
}

// --- tests ---

func TestCompletionFilter(t *testing.T) {
	if CompletionFilter("all") != nil {
		t.Fatalf("CompletionFilter(all) != nil")
	}
	if f := CompletionFilter("pending"); f == nil || *f {
		t.Fatalf("CompletionFilter(pending)=%v, want false", f)
	}
	if f := CompletionFilter("completed"); f == nil || !*f {
		t.Fatalf("CompletionFilter(completed)=%v, want true", f)
	}
}

func TestSearchPassesStatusAsCompletionFilter(t *testing.T) {
	cases := []struct {
		status string
		want   *bool
	}{
		{"all", nil},
		{"pending", CompletionFilter("pending")},
		{"completed", CompletionFilter("completed")},
	}
	for _, tc := range cases {
		var got repository.Params
		exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
			got = p
			return nil, nil
		}}
		q := defaultQuery()
		q.Status = tc.status
		if _, err := NewTaskService(exec).Search(context.Background(), who, q); err != nil {
			t.Fatalf("Search(%s) err=%v", tc.status, err)
		}
		completed, ok := got["completed"].(*bool)
		if !ok {
			t.Fatalf("status %s: completed param type %T", tc.status, got["completed"])
		}
		switch {
		case tc.want == nil && completed != nil:
			t.Fatalf("status %s: completed=%v, want nil", tc.status, *completed)
		case tc.want != nil && (completed == nil || *completed != *tc.want):
			t.Fatalf("status %s: completed=%v, want %v", tc.status, completed, *tc.want)
		}
		if got["idAccount"] != who.AccountID {
			t.Fatalf("idAccount=%v, want %d", got["idAccount"], who.AccountID)
		}
	}
}

func TestSearchEchoesRequestedPage(t *testing.T) {
	exec := returning(repository.RecordSet{}, repository.Set([]model.CountRow{{TotalCount: 2}}))
	q := defaultQuery()
	q.Page = 5
	res, err := NewTaskService(exec).Search(context.Background(), who, q)
	if err != nil {
		t.Fatalf("Search() err=%v", err)
	}
	if res.Page != 5 || res.PageSize != 20 || res.Total != 2 || len(res.Tasks) != 0 || res.Tasks == nil {
		t.Fatalf("result=%+v", res)
	}
}

func TestSearchWithoutRecordSets(t *testing.T) {
	res, err := NewTaskService(returning()).Search(context.Background(), who, defaultQuery())
	if err != nil || res.Total != 0 || len(res.Tasks) != 0 {
		t.Fatalf("Search() res=%+v err=%v", res, err)
	}
}

func TestSearchForwardsPriorityAndSort(t *testing.T) {
	var got repository.Params
	exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
		if name != repository.ProcTaskSearch {
			t.Fatalf("procedure=%s", name)
		}
		got = p
		return nil, nil
	}}
	q := defaultQuery()
	two := 2
	q.Priority = &two
	q.SortBy, q.SortDirection = "dueDate", "asc"
	if _, err := NewTaskService(exec).Search(context.Background(), who, q); err != nil {
		t.Fatalf("Search() err=%v", err)
	}
	if p, _ := got["priority"].(*model.Priority); p == nil || *p != model.PriorityHigh {
		t.Fatalf("priority=%v", got["priority"])
	}
	if got["sortBy"] != "dueDate" || got["sortDirection"] != "asc" {
		t.Fatalf("sort=%v %v", got["sortBy"], got["sortDirection"])
	}
}

func TestSearchExecutorFailureIsOperational(t *testing.T) {
	_, err := NewTaskService(failing(errors.New("connection reset"))).Search(context.Background(), who, defaultQuery())
	if apperr.KindOf(err) != apperr.KindOperational {
		t.Fatalf("Search() err=%v kind=%v, want operational", err, apperr.KindOf(err))
	}
}

func TestCreateDefaultsPriority(t *testing.T) {
	var got repository.Params
	exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
		got = p
		return []repository.RecordSet{repository.Set([]model.Task{{ID: 11, Title: "Buy milk"}})}, nil
	}}
	task, err := NewTaskService(exec).Create(context.Background(), who, dto.TaskCreate{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	if task.ID != 11 || got["priority"] != model.PriorityMedium || got["idUser"] != who.UserID {
		t.Fatalf("task=%+v params=%v", task, got)
	}
}

func TestCreateEmptyResultIsOperational(t *testing.T) {
	_, err := NewTaskService(returning()).Create(context.Background(), who, dto.TaskCreate{Title: "x"})
	if apperr.KindOf(err) != apperr.KindOperational {
		t.Fatalf("Create() err=%v, want operational", err)
	}
}

func TestTranslateProcedureErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind apperr.Kind
		code string
	}{
		{repository.ErrTaskNotFound, apperr.KindNotFound, apperr.CodeTaskNotFound},
		{repository.ErrCategoryNotFound, apperr.KindNotFound, apperr.CodeCategoryNotFound},
		{repository.ErrNotificationNotFound, apperr.KindNotFound, apperr.CodeNotificationMissing},
		{repository.ErrDueDateInPast, apperr.KindDomainRule, apperr.CodeDueDateInPast},
		{repository.ErrDueTimeRequiresDueDate, apperr.KindDomainRule, apperr.CodeDueTimeRequiresDate},
		{errors.New("TaskNotFound lookalike"), apperr.KindOperational, apperr.CodeInternal},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("exec proc: %w", tc.err)
		_, err := NewTaskService(failing(wrapped)).RemoveDueDate(context.Background(), who, 1)
		e := apperr.As(err)
		if e == nil || e.Kind != tc.kind || e.Code != tc.code {
			t.Fatalf("RemoveDueDate() err=%v, want kind %v code %s", err, tc.kind, tc.code)
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("translated error lost its cause: %v", err)
		}
	}
}

func TestUpdateDueDateWithoutFieldsClears(t *testing.T) {
	exec := returning(repository.Set([]model.Task{{ID: 4}}))
	if _, err := NewTaskService(exec).UpdateDueDate(context.Background(), who, 4, dto.DueDateUpdate{}); err != nil {
		t.Fatalf("UpdateDueDate() err=%v", err)
	}
	if len(exec.calls) != 1 || exec.calls[0] != repository.ProcTaskRemoveDueDate {
		t.Fatalf("calls=%v", exec.calls)
	}
}

func TestChangePriorityAndCompletion(t *testing.T) {
	var got []repository.Params
	exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
		got = append(got, p)
		return []repository.RecordSet{repository.Set([]model.Task{{ID: 9}})}, nil
	}}
	svc := NewTaskService(exec)
	high := 2
	if _, err := svc.ChangePriority(context.Background(), who, 9, dto.PriorityUpdate{Priority: &high}); err != nil {
		t.Fatalf("ChangePriority() err=%v", err)
	}
	done := true
	if _, err := svc.SetCompletion(context.Background(), who, 9, dto.CompletionUpdate{Completed: &done}); err != nil {
		t.Fatalf("SetCompletion() err=%v", err)
	}
	if got[0]["priority"] != model.PriorityHigh || got[1]["completed"] != true {
		t.Fatalf("params=%v", got)
	}
	if exec.calls[0] != repository.ProcTaskUpdatePriority || exec.calls[1] != repository.ProcTaskSetCompletion {
		t.Fatalf("calls=%v", exec.calls)
	}
}
