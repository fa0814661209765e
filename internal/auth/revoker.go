package auth

import (
	"context"
	"errors"
	"time"

	"github.com/undesputed/senior-care-central-sub001/internal/store"
)

// SessionRevoker marks every session of an account as invalid until ttl elapses.
type SessionRevoker struct {
	kv  store.KV
	ttl time.Duration
}

func NewSessionRevoker(kv store.KV, ttl time.Duration) *SessionRevoker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRevoker{kv: kv, ttl: ttl}
}

func revokedKey(accountID string) string {
	return "session:revoked:" + accountID
}

func (r *SessionRevoker) Revoke(ctx context.Context, accountID string) error {
	return r.kv.Set(ctx, revokedKey(accountID), time.Now().UTC().Format(time.RFC3339), r.ttl)
}

// IsRevoked cache errors other than a miss are returned so the caller can decide.
func (r *SessionRevoker) IsRevoked(ctx context.Context, accountID string) (bool, error) {
	_, err := r.kv.Get(ctx, revokedKey(accountID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrMiss) {
		return false, nil
	}
	return false, err
}
