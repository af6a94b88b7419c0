// Package identity carries the caller's account and user through a request.
package identity

import (
	"context"
	"errors"
	"net/http"
)

var ErrMissing = errors.New("identity not resolved")

// Identity scopes every operation to an account and acting user.
type Identity struct {
	AccountID int64
	UserID    int64
}

// Resolver extracts the identity of an incoming request.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// Static resolves every request to the same identity. It stands in for real auth.
type Static struct {
	ID Identity
}

func (s Static) Resolve(*http.Request) (Identity, error) {
	if s.ID.AccountID <= 0 || s.ID.UserID <= 0 {
		return Identity{}, ErrMissing
	}
	return s.ID, nil
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
