package auth

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// Account the authenticated caller.
type Account struct {
	ID    string
	Email string
	Role  domain.Role
}

type accountKey struct{}

func WithAccount(ctx context.Context, a *Account) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

// AccountFromContext nil when the request is unauthenticated.
func AccountFromContext(ctx context.Context) *Account {
	a, _ := ctx.Value(accountKey{}).(*Account)
	return a
}

// HasRole reports whether the account carries role.
func (a *Account) HasRole(role domain.Role) bool {
	return a != nil && a.Role == role
}
