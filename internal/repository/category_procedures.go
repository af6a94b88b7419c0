package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskhub/internal/model"
)

func registerCategoryProcedures(e *Executor) {
	e.Register(ProcCategoryList, categoryList)
	e.Register(ProcCategoryCreate, categoryCreate)
}

func categoryList(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	var categories []model.Category
	if err := c.Tx.Where("account_id = ?", accountID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return []RecordSet{Set(categories)}, nil
}

// categoryCreate returns the existing category when the name is already taken.
func categoryCreate(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	name, err := requireArg[string](c.Params, "name")
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var category model.Category
	err = c.Tx.Where("account_id = ? AND name = ?", accountID, name).First(&category).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = model.Category{AccountID: accountID, Name: name}
		if err := c.Tx.Create(&category).Error; err != nil {
			return nil, fmt.Errorf("create category: %w", err)
		}
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
	return []RecordSet{Set([]model.Category{category})}, nil
}
