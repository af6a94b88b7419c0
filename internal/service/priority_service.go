package service

import (
	"bytes"
	"context"
	"encoding/json"

	"taskhub/internal/dto"
	"taskhub/internal/identity"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// PriorityListing is either Flat or Grouped.
type PriorityListing interface {
	json.Marshaler
	isPriorityListing()
}

// Flat is the ordered task list as the procedure returned it.
type Flat []model.Task

func (Flat) isPriorityListing() {}

func (f Flat) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]model.Task(f))
}

// Grouped buckets tasks by priority. Order lists the keys in output order.
type Grouped struct {
	Order  []model.Priority
	Groups map[model.Priority][]model.Task
}

func (Grouped) isPriorityListing() {}

// MarshalJSON writes an object keyed by priority label, every label present, in Order.
func (g Grouped) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range g.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Label())
		if err != nil {
			return nil, err
		}
		tasks := g.Groups[p]
		if tasks == nil {
			tasks = []model.Task{}
		}
		val, err := json.Marshal(tasks)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PriorityService serves the priority list, distribution report and history.
type PriorityService struct {
	exec ProcedureExecutor
}

func NewPriorityService(exec ProcedureExecutor) *PriorityService {
	return &PriorityService{exec: exec}
}

func (s *PriorityService) List(ctx context.Context, who identity.Identity, q dto.PriorityListQuery) (PriorityListing, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskListByPriority, repository.Params{
		"idAccount":             who.AccountID,
		"sortOrder":             q.SortOrder,
		"secondarySortCriteria": q.SecondarySortCriteria,
	})
	if err != nil {
		return nil, err
	}
	tasks, err := rows[model.Task](sets, 0)
	if err != nil {
		return nil, err
	}
	if !q.GroupByPriority {
		return Flat(tasks), nil
	}

	order := []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	if q.SortOrder == "ASC" {
		order = []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
	}
	g := Grouped{Order: order, Groups: make(map[model.Priority][]model.Task, len(order))}
	for _, t := range tasks {
		g.Groups[t.Priority] = append(g.Groups[t.Priority], t)
	}
	return g, nil
}

func (s *PriorityService) Distribution(ctx context.Context, who identity.Identity, q dto.DistributionQuery) ([]model.PriorityDistributionRow, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskPriorityDistribution, repository.Params{
		"idAccount": who.AccountID,
		"startDate": q.StartDate,
		"endDate":   q.EndDate,
	})
	if err != nil {
		return nil, err
	}
	out, err := rows[model.PriorityDistributionRow](sets, 0)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.PriorityDistributionRow{}
	}
	return out, nil
}

func (s *PriorityService) History(ctx context.Context, who identity.Identity, taskID int64) ([]model.PriorityHistoryRow, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskPriorityHistory, repository.Params{
		"idAccount": who.AccountID,
		"idTask":    taskID,
	})
	if err != nil {
		return nil, err
	}
	out, err := rows[model.PriorityHistoryRow](sets, 0)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.PriorityHistoryRow{}
	}
	return out, nil
}
