package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims session token issued by the identity provider.
type Claims struct {
	Email        string   `json:"email"`
	AppMetadata  metadata `json:"app_metadata"`
	UserMetadata metadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

type metadata struct {
	Role string `json:"role,omitempty"`
}

// Role app_metadata wins over user_metadata; empty when neither is a marketplace role.
func (c *Claims) Role() domain.Role {
	if r := domain.Role(c.AppMetadata.Role); r.Valid() {
		return r
	}
	if r := domain.Role(c.UserMetadata.Role); r.Valid() {
		return r
	}
	return ""
}

// Verifier checks HS256 session tokens.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier has no secret", ErrInvalidToken)
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueToken signs a session token the way the identity provider does. Used by tests and
// local tooling.
func IssueToken(secret string, accountID, email string, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:       email,
		AppMetadata: metadata{Role: string(role)},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
