package service

import (
	"context"

	"taskhub/internal/dto"
	"taskhub/internal/identity"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// SearchResult is one page of tasks. Page and PageSize echo the request.
type SearchResult struct {
	Tasks    []model.Task
	Total    int64
	Page     int
	PageSize int
}

// TaskService wraps task-related business logic.
type TaskService struct {
	exec ProcedureExecutor
}

func NewTaskService(exec ProcedureExecutor) *TaskService {
	return &TaskService{exec: exec}
}

func (s *TaskService) Create(ctx context.Context, who identity.Identity, in dto.TaskCreate) (model.Task, error) {
	priority := model.PriorityMedium
	if in.Priority != nil {
		priority = model.Priority(*in.Priority)
	}
	sets, err := call(ctx, s.exec, repository.ProcTaskCreate, repository.Params{
		"idAccount":         who.AccountID,
		"idUser":            who.UserID,
		"title":             in.Title,
		"description":       in.Description,
		"dueDate":           in.DueDate,
		"dueTime":           in.DueTime,
		"priority":          priority,
		"idCategory":        in.CategoryID,
		"idUserResponsible": in.ResponsibleID,
	})
	if err != nil {
		return model.Task{}, err
	}
	return single[model.Task](sets, repository.ProcTaskCreate)
}

// Search runs the task search. Sorting and paging happen in the procedure.
func (s *TaskService) Search(ctx context.Context, who identity.Identity, q dto.SearchQuery) (SearchResult, error) {
	p := Normalize(q)
	sets, err := call(ctx, s.exec, repository.ProcTaskSearch, repository.Params{
		"idAccount":     who.AccountID,
		"searchTerm":    p.SearchTerm,
		"completed":     p.Completed,
		"priority":      p.Priority,
		"idCategory":    p.CategoryID,
		"dueDateStart":  p.DueDateStart,
		"dueDateEnd":    p.DueDateEnd,
		"sortBy":        p.SortBy,
		"sortDirection": p.SortDirection,
		"page":          p.Page,
		"pageSize":      p.PageSize,
	})
	if err != nil {
		return SearchResult{}, err
	}

	tasks, err := rows[model.Task](sets, 0)
	if err != nil {
		return SearchResult{}, err
	}
	count, _, err := repository.First[model.CountRow](sets, 1)
	if err != nil {
		return SearchResult{}, translate(err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return SearchResult{Tasks: tasks, Total: count.TotalCount, Page: p.Page, PageSize: p.PageSize}, nil
}

// UpdateDueDate sets the due date and time. Both empty clears them.
func (s *TaskService) UpdateDueDate(ctx context.Context, who identity.Identity, taskID int64, in dto.DueDateUpdate) (model.Task, error) {
	if in.DueDate == nil && in.DueTime == nil {
		return s.RemoveDueDate(ctx, who, taskID)
	}
	sets, err := call(ctx, s.exec, repository.ProcTaskUpdateDueDate, repository.Params{
		"idAccount": who.AccountID,
		"idTask":    taskID,
		"dueDate":   in.DueDate,
		"dueTime":   in.DueTime,
	})
	if err != nil {
		return model.Task{}, err
	}
	return single[model.Task](sets, repository.ProcTaskUpdateDueDate)
}

func (s *TaskService) RemoveDueDate(ctx context.Context, who identity.Identity, taskID int64) (model.Task, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskRemoveDueDate, repository.Params{
		"idAccount": who.AccountID,
		"idTask":    taskID,
	})
	if err != nil {
		return model.Task{}, err
	}
	return single[model.Task](sets, repository.ProcTaskRemoveDueDate)
}

// ChangePriority records a history entry when the value actually changes.
func (s *TaskService) ChangePriority(ctx context.Context, who identity.Identity, taskID int64, in dto.PriorityUpdate) (model.Task, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskUpdatePriority, repository.Params{
		"idAccount": who.AccountID,
		"idUser":    who.UserID,
		"idTask":    taskID,
		"priority":  model.Priority(*in.Priority),
	})
	if err != nil {
		return model.Task{}, err
	}
	return single[model.Task](sets, repository.ProcTaskUpdatePriority)
}

func (s *TaskService) SetCompletion(ctx context.Context, who identity.Identity, taskID int64, in dto.CompletionUpdate) (model.Task, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskSetCompletion, repository.Params{
		"idAccount": who.AccountID,
		"idTask":    taskID,
		"completed": *in.Completed,
	})
	if err != nil {
		return model.Task{}, err
	}
	return single[model.Task](sets, repository.ProcTaskSetCompletion)
}
