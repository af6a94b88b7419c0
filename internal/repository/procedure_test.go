package repository

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/config"
	"taskhub/internal/model"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func testDBConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "taskhub.db") + "?_busy_timeout=5000",
		MaxOpenConns: 1,
	}
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	e := NewExecutor(Opener(testDBConfig(t), nil), WithClock(func() time.Time { return testNow }))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func exec(t *testing.T, e *Executor, name string, p Params) []RecordSet {
	t.Helper()
	sets, err := e.Execute(context.Background(), name, p)
	if err != nil {
		t.Fatalf("Execute(%s) err=%v", name, err)
	}
	return sets
}

func mustCreateTask(t *testing.T, e *Executor, title string, extra Params) model.Task {
	t.Helper()
	p := Params{"idAccount": int64(1), "idUser": int64(1), "title": title, "priority": model.PriorityMedium}
	for k, v := range extra {
		p[k] = v
	}
	task, ok, err := First[model.Task](exec(t, e, ProcTaskCreate, p), 0)
	if err != nil || !ok {
		t.Fatalf("create %q: ok=%v err=%v", title, ok, err)
	}
	return task
}

func datePtr(d model.Date) *model.Date { return &d }

func strPtr(s string) *string { return &s }

func TestExecuteUnknownProcedure(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.Execute(context.Background(), "functional.spNope", nil)
	if !errors.Is(err, ErrUnknownProcedure) {
		t.Fatalf("Execute() err=%v, want %v", err, ErrUnknownProcedure)
	}
}

func TestExecutorOpensPoolLazilyOnce(t *testing.T) {
	cfg := testDBConfig(t)
	opens := 0
	e := NewExecutor(func() (*gorm.DB, error) {
		opens++
		return NewDB(cfg, nil)
	})
	t.Cleanup(func() { _ = e.Close() })

	if opens != 0 || e.Opened() {
		t.Fatalf("pool opened before first call")
	}
	for i := 0; i < 3; i++ {
		exec(t, e, ProcCategoryList, Params{"idAccount": int64(1)})
	}
	if opens != 1 {
		t.Fatalf("opens=%d, want 1", opens)
	}
}

func TestExecutorRetriesFailedOpen(t *testing.T) {
	cfg := testDBConfig(t)
	calls := 0
	e := NewExecutor(func() (*gorm.DB, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return NewDB(cfg, nil)
	})
	t.Cleanup(func() { _ = e.Close() })

	if _, err := e.Execute(context.Background(), ProcCategoryList, Params{"idAccount": int64(1)}); err == nil {
		t.Fatalf("first Execute() err=nil, want open failure")
	}
	exec(t, e, ProcCategoryList, Params{"idAccount": int64(1)})
}

func TestMissingParam(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.Execute(context.Background(), ProcTaskSearch, Params{})
	if !errors.Is(err, ErrMissingParam) {
		t.Fatalf("Execute() err=%v, want %v", err, ErrMissingParam)
	}
}

func TestRowsRejectsWrongShape(t *testing.T) {
	sets := []RecordSet{{model.CountRow{TotalCount: 1}}}
	if _, err := Rows[model.Task](sets, 0); !errors.Is(err, ErrUnexpectedShape) {
		t.Fatalf("Rows() err=%v, want %v", err, ErrUnexpectedShape)
	}
	rows, err := Rows[model.Task](sets, 3)
	if err != nil || len(rows) != 0 {
		t.Fatalf("Rows(missing set)=%v err=%v, want empty", rows, err)
	}
}

func TestObserverSeesEveryCall(t *testing.T) {
	var names []string
	e := NewExecutor(Opener(testDBConfig(t), nil), WithObserver(func(name string, _ time.Duration, _ error) {
		names = append(names, name)
	}))
	t.Cleanup(func() { _ = e.Close() })

	exec(t, e, ProcCategoryList, Params{"idAccount": int64(1)})
	_, _ = e.Execute(context.Background(), "functional.spNope", nil)

	if len(names) != 2 || names[0] != ProcCategoryList {
		t.Fatalf("observed=%v", names)
	}
}

func TestPageOffset(t *testing.T) {
	if off, ok := pageOffset(3, 20); !ok || off != 40 {
		t.Fatalf("pageOffset(3, 20)=%d,%v, want 40,true", off, ok)
	}
	if _, ok := pageOffset(math.MaxInt/10+2, 10); ok {
		t.Fatalf("pageOffset overflow reported ok")
	}
	if off, ok := pageOffset(math.MaxInt/10+1, 10); !ok || off != math.MaxInt/10*10 {
		t.Fatalf("pageOffset at the limit=%d,%v", off, ok)
	}
}
