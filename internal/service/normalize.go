package service

import (
	"taskhub/internal/dto"
	"taskhub/internal/model"
)

// SearchParams is a validated search query in the shape the search procedure takes.
type SearchParams struct {
	SearchTerm    string
	Completed     *bool
	Priority      *model.Priority
	CategoryID    *int64
	DueDateStart  *model.Date
	DueDateEnd    *model.Date
	SortBy        string
	SortDirection string
	Page          int
	PageSize      int
}

// CompletionFilter maps a status to the completion filter. "all" means no filter.
func CompletionFilter(status string) *bool {
	var v bool
	switch status {
	case "completed":
		v = true
	case "pending":
		v = false
	default:
		return nil
	}
	return &v
}

func Normalize(q dto.SearchQuery) SearchParams {
	p := SearchParams{
		SearchTerm:    q.SearchTerm,
		Completed:     CompletionFilter(q.Status),
		CategoryID:    q.CategoryID,
		DueDateStart:  q.DueDateStart,
		DueDateEnd:    q.DueDateEnd,
		SortBy:        q.SortBy,
		SortDirection: q.SortDirection,
		Page:          q.Page,
		PageSize:      q.PageSize,
	}
	if q.Priority != nil {
		pr := model.Priority(*q.Priority)
		p.Priority = &pr
	}
	return p
}
