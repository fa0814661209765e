package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

var ErrUnauthenticated = errors.New("unauthorized")

// Authenticator resolves a bearer token into an Account.
type Authenticator struct {
	verifier *Verifier
	revoker  *SessionRevoker
	profiles repository.ProfilesRepository
	logger   *zap.Logger
}

func NewAuthenticator(verifier *Verifier, revoker *SessionRevoker, profiles repository.ProfilesRepository, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{verifier: verifier, revoker: revoker, profiles: profiles, logger: logger}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := a.verifier.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if a.revoker != nil {
		revoked, err := a.revoker.IsRevoked(ctx, claims.Subject)
		if err != nil {
			// cache outage must not lock everyone out
			a.logger.Warn("Session revocation lookup failed", zap.String("account_id", claims.Subject), zap.Error(err))
		} else if revoked {
			return nil, fmt.Errorf("%w: session revoked", ErrUnauthenticated)
		}
	}

	acct := &Account{ID: claims.Subject, Email: claims.Email, Role: claims.Role()}
	if acct.Role == "" && a.profiles != nil {
		// role claim missing: the profile row decides; a missing row is handled downstream
		p, err := a.profiles.GetProfile(ctx, acct.ID)
		switch {
		case err == nil:
			acct.Role = p.Role
			if acct.Email == "" {
				acct.Email = p.Email
			}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	if acct.Role != "" && !acct.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, acct.Role)
	}
	return acct, nil
}
