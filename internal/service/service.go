package service

import (
	"context"
	"errors"

	"taskhub/internal/apperr"
	"taskhub/internal/repository"
)

// ProcedureExecutor runs a named persistence procedure. *repository.Executor implements it.
type ProcedureExecutor interface {
	Execute(ctx context.Context, name string, params repository.Params) ([]repository.RecordSet, error)
}

// ExecutorFunc adapts a plain function to ProcedureExecutor.
type ExecutorFunc func(ctx context.Context, name string, params repository.Params) ([]repository.RecordSet, error)

func (f ExecutorFunc) Execute(ctx context.Context, name string, params repository.Params) ([]repository.RecordSet, error) {
	return f(ctx, name, params)
}

// translate maps procedure failures to application errors. Anything unknown is operational.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if apperr.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		return apperr.NotFound(apperr.CodeTaskNotFound, "Task not found", err)
	case errors.Is(err, repository.ErrCategoryNotFound):
		return apperr.NotFound(apperr.CodeCategoryNotFound, "Category not found", err)
	case errors.Is(err, repository.ErrNotificationNotFound):
		return apperr.NotFound(apperr.CodeNotificationMissing, "Notification not found", err)
	case errors.Is(err, repository.ErrDueDateInPast):
		return apperr.DomainRule(apperr.CodeDueDateInPast, "Due date cannot be in the past", err)
	case errors.Is(err, repository.ErrDueTimeRequiresDueDate):
		return apperr.DomainRule(apperr.CodeDueTimeRequiresDate, "Due time requires a due date", err)
	}
	return apperr.Operational(err)
}

// call executes a procedure and translates its error.
func call(ctx context.Context, exec ProcedureExecutor, name string, params repository.Params) ([]repository.RecordSet, error) {
	sets, err := exec.Execute(ctx, name, params)
	if err != nil {
		return nil, translate(err)
	}
	return sets, nil
}

// single returns the first row of the first record set, failing when there is none.
func single[T any](sets []repository.RecordSet, what string) (T, error) {
	row, ok, err := repository.First[T](sets, 0)
	if err != nil {
		return row, apperr.Operational(err)
	}
	if !ok {
		return row, apperr.Operational(errors.New(what + ": empty result"))
	}
	return row, nil
}

func rows[T any](sets []repository.RecordSet, index int) ([]T, error) {
	out, err := repository.Rows[T](sets, index)
	if err != nil {
		return nil, apperr.Operational(err)
	}
	return out, nil
}
