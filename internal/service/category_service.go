package service

import (
	"context"

	"taskhub/internal/dto"
	"taskhub/internal/identity"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	exec ProcedureExecutor
}

func NewCategoryService(exec ProcedureExecutor) *CategoryService {
	return &CategoryService{exec: exec}
}

func (s *CategoryService) List(ctx context.Context, who identity.Identity) ([]model.Category, error) {
	sets, err := call(ctx, s.exec, repository.ProcCategoryList, repository.Params{"idAccount": who.AccountID})
	if err != nil {
		return nil, err
	}
	out, err := rows[model.Category](sets, 0)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Category{}
	}
	return out, nil
}

// Create returns the existing category when the name is already taken.
func (s *CategoryService) Create(ctx context.Context, who identity.Identity, in dto.CategoryCreate) (model.Category, error) {
	sets, err := call(ctx, s.exec, repository.ProcCategoryCreate, repository.Params{
		"idAccount": who.AccountID,
		"name":      in.Name,
	})
	if err != nil {
		return model.Category{}, err
	}
	return single[model.Category](sets, repository.ProcCategoryCreate)
}
