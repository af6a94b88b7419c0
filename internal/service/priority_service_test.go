package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"taskhub/internal/apperr"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

func TestPriorityListFlat(t *testing.T) {
	exec := returning(repository.Set([]model.Task{{ID: 1, Priority: model.PriorityHigh}, {ID: 2}}))
	listing, err := NewPriorityService(exec).List(context.Background(), who, dto.PriorityListQuery{SortOrder: "DESC"})
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	flat, ok := listing.(Flat)
	if !ok || len(flat) != 2 {
		t.Fatalf("listing=%T %v, want Flat of 2", listing, listing)
	}

	empty, _ := NewPriorityService(returning()).List(context.Background(), who, dto.PriorityListQuery{SortOrder: "DESC"})
	b, _ := json.Marshal(empty)
	if string(b) != "[]" {
		t.Fatalf("empty flat listing=%s", b)
	}
}

func TestPriorityListGroupedKeepsEveryLabelInOrder(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "a", Priority: model.PriorityLow},
		{ID: 2, Title: "b", Priority: model.PriorityLow},
		{ID: 3, Title: "c", Priority: model.PriorityHigh},
	}
	for _, order := range []string{"DESC", "ASC"} {
		listing, err := NewPriorityService(returning(repository.Set(tasks))).List(context.Background(), who,
			dto.PriorityListQuery{SortOrder: order, GroupByPriority: true})
		if err != nil {
			t.Fatalf("List(%s) err=%v", order, err)
		}
		b, err := json.Marshal(listing)
		if err != nil {
			t.Fatalf("marshal err=%v", err)
		}
		out := string(b)
		high, medium, low := strings.Index(out, `"High"`), strings.Index(out, `"Medium"`), strings.Index(out, `"Low"`)
		if high < 0 || medium < 0 || low < 0 {
			t.Fatalf("%s listing=%s, want all labels", order, out)
		}
		if order == "DESC" && !(high < medium && medium < low) {
			t.Fatalf("DESC key order wrong: %s", out)
		}
		if order == "ASC" && !(low < medium && medium < high) {
			t.Fatalf("ASC key order wrong: %s", out)
		}

		var decoded map[string][]model.Task
		if err := json.Unmarshal(b, &decoded); err != nil {
			t.Fatalf("unmarshal err=%v", err)
		}
		if len(decoded["Low"]) != 2 || len(decoded["High"]) != 1 || decoded["Medium"] == nil {
			t.Fatalf("groups=%v", decoded)
		}
	}
}

func TestHistoryTranslatesMissingTask(t *testing.T) {
	_, err := NewPriorityService(failing(repository.ErrTaskNotFound)).History(context.Background(), who, 5)
	if e := apperr.As(err); e == nil || e.Code != apperr.CodeTaskNotFound {
		t.Fatalf("History() err=%v", err)
	}
}

func TestDistributionPassesRange(t *testing.T) {
	var got repository.Params
	exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
		got = p
		return nil, nil
	}}
	start := model.NewDate(2025, 1, 1)
	rows, err := NewPriorityService(exec).Distribution(context.Background(), who, dto.DistributionQuery{StartDate: &start})
	if err != nil || rows == nil {
		t.Fatalf("Distribution() rows=%v err=%v", rows, err)
	}
	if d, _ := got["startDate"].(*model.Date); d == nil || d.String() != "2025-01-01" {
		t.Fatalf("startDate=%v", got["startDate"])
	}
	if d, ok := got["endDate"].(*model.Date); !ok || d != nil {
		t.Fatalf("endDate=%v", got["endDate"])
	}
}
