package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
	"github.com/undesputed/senior-care-central-sub001/internal/store"
)

const testSecret = "test-secret"

func newTestAuthenticator(profiles repository.ProfilesRepository) (*Authenticator, *SessionRevoker) {
	revoker := NewSessionRevoker(store.NewMemoryKV(), time.Hour)
	return NewAuthenticator(NewVerifier(testSecret, ""), revoker, profiles, nil), revoker
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestAuthenticate_RoleFromClaims(t *testing.T) {
	a, _ := newTestAuthenticator(nil)
	token, err := IssueToken(testSecret, "acct-1", "p@example.com", domain.RoleProvider, time.Hour)
	require.NoError(t, err)

	acct, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)
	assert.Equal(t, domain.RoleProvider, acct.Role)
	assert.True(t, acct.HasRole(domain.RoleProvider))
}

func TestAuthenticate_UserMetadataFallback(t *testing.T) {
	a, _ := newTestAuthenticator(nil)
	claims := Claims{
		UserMetadata:     metadata{Role: "family"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acct-2", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	acct, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFamily, acct.Role)
}

func TestAuthenticate_RoleFromProfileRow(t *testing.T) {
	profiles := repository.NewMemoryStore()
	profiles.PutProfile(domain.Profile{ID: "acct-3", Email: "f@example.com", Role: domain.RoleFamily})
	a, _ := newTestAuthenticator(profiles)

	token, err := IssueToken(testSecret, "acct-3", "", "", time.Hour)
	require.NoError(t, err)

	acct, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFamily, acct.Role)
	assert.Equal(t, "f@example.com", acct.Email)
}

func TestAuthenticate_Rejections(t *testing.T) {
	a, revoker := newTestAuthenticator(nil)
	ctx := context.Background()

	_, err := a.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	wrongKey, err := IssueToken("other-secret", "acct-1", "", domain.RoleFamily, time.Hour)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, wrongKey)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	expired, err := IssueToken(testSecret, "acct-1", "", domain.RoleFamily, -time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	valid, err := IssueToken(testSecret, "acct-1", "", domain.RoleFamily, time.Hour)
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(ctx, "acct-1"))
	_, err = a.Authenticate(ctx, valid)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifier_Issuer(t *testing.T) {
	v := NewVerifier(testSecret, "https://id.example.com")
	token, err := IssueToken(testSecret, "acct-1", "", domain.RoleFamily, time.Hour)
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccountContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, AccountFromContext(ctx))
	ctx = WithAccount(ctx, &Account{ID: "x"})
	assert.Equal(t, "x", AccountFromContext(ctx).ID)
}
