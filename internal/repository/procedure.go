package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUnknownProcedure = errors.New("unknown procedure")
	ErrMissingParam     = errors.New("missing procedure parameter")
	ErrUnexpectedShape  = errors.New("unexpected record set shape")
)

// Errors raised by procedures for domain rules. Services translate them.
var (
	ErrTaskNotFound           = errors.New("TaskNotFound")
	ErrCategoryNotFound       = errors.New("CategoryNotFound")
	ErrNotificationNotFound   = errors.New("NotificationNotFound")
	ErrDueDateInPast          = errors.New("DueDateCannotBeInThePast")
	ErrDueTimeRequiresDueDate = errors.New("DueTimeRequiresDueDate")
)

// Params carries named procedure arguments.
type Params map[string]any

// RecordSet is one ordered result set produced by a procedure.
type RecordSet []any

// Call is what a procedure body sees: a transaction, its arguments and the call time.
type Call struct {
	Tx     *gorm.DB
	Params Params
	Now    time.Time
}

type Procedure func(c Call) ([]RecordSet, error)

// Executor runs named procedures against a lazily opened, pooled database.
type Executor struct {
	open    func() (*gorm.DB, error)
	clock   func() time.Time
	observe func(name string, elapsed time.Duration, err error)

	mu    sync.Mutex
	db    *gorm.DB
	procs map[string]Procedure
}

type Option func(*Executor)

func WithClock(clock func() time.Time) Option {
	return func(e *Executor) { e.clock = clock }
}

// WithObserver is told about every call outcome.
func WithObserver(fn func(name string, elapsed time.Duration, err error)) Option {
	return func(e *Executor) { e.observe = fn }
}

// NewExecutor registers the built-in procedures. open is not called until the first Execute.
func NewExecutor(open func() (*gorm.DB, error), opts ...Option) *Executor {
	e := &Executor{
		open:  open,
		clock: func() time.Time { return time.Now().UTC() },
		procs: make(map[string]Procedure),
	}
	for _, opt := range opts {
		opt(e)
	}
	registerTaskProcedures(e)
	registerCategoryProcedures(e)
	registerNotificationProcedures(e)
	return e
}

func (e *Executor) Register(name string, p Procedure) {
	e.mu.Lock()
	e.procs[name] = p
	e.mu.Unlock()
}

// Execute runs one procedure inside a transaction and returns its record sets.
func (e *Executor) Execute(ctx context.Context, name string, params Params) ([]RecordSet, error) {
	start := time.Now()
	sets, err := e.execute(ctx, name, params)
	if e.observe != nil {
		e.observe(name, time.Since(start), err)
	}
	return sets, err
}

func (e *Executor) execute(ctx context.Context, name string, params Params) ([]RecordSet, error) {
	e.mu.Lock()
	proc, ok := e.procs[name]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}

	db, err := e.DB()
	if err != nil {
		return nil, err
	}

	var sets []RecordSet
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var procErr error
		sets, procErr = proc(Call{Tx: tx, Params: params, Now: e.clock()})
		return procErr
	})
	if err != nil {
		return nil, fmt.Errorf("exec %s: %w", name, err)
	}
	return sets, nil
}

// DB returns the pool, opening it on first use. A failed open is retried on the next call.
func (e *Executor) DB() (*gorm.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db != nil {
		return e.db, nil
	}
	db, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	e.db = db
	return db, nil
}

// Opened reports whether the pool has been created.
func (e *Executor) Opened() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db != nil
}

// Ping checks an already opened pool. It does not force the pool open.
func (e *Executor) Ping(ctx context.Context) error {
	e.mu.Lock()
	db := e.db
	e.mu.Unlock()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	e.db = nil
	return sqlDB.Close()
}

// Arg returns the named argument when present and of type T.
func Arg[T any](p Params, key string) (T, bool) {
	v, ok := p[key].(T)
	return v, ok
}

func requireArg[T any](p Params, key string) (T, error) {
	v, ok := Arg[T](p, key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return v, nil
}

// pageOffset is the row offset of a 1-based page. ok is false when the offset
// does not fit in an int, which means the page lies beyond any data.
func pageOffset(page, pageSize int) (offset int, ok bool) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

// Set packs typed rows into a record set.
func Set[T any](rows []T) RecordSet {
	rs := make(RecordSet, len(rows))
	for i, r := range rows {
		rs[i] = r
	}
	return rs
}

// Rows unpacks record set idx. A missing set yields no rows.
func Rows[T any](sets []RecordSet, idx int) ([]T, error) {
	if idx >= len(sets) {
		return nil, nil
	}
	out := make([]T, 0, len(sets[idx]))
	for i, row := range sets[idx] {
		v, ok := row.(T)
		if !ok {
			return nil, fmt.Errorf("%w: set %d row %d is %T", ErrUnexpectedShape, idx, i, row)
		}
		out = append(out, v)
	}
	return out, nil
}

// First returns the first row of record set idx, if any.
func First[T any](sets []RecordSet, idx int) (T, bool, error) {
	rows, err := Rows[T](sets, idx)
	if err != nil || len(rows) == 0 {
		var zero T
		return zero, false, err
	}
	return rows[0], true, nil
}
