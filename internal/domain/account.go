package domain

import "time"

// Role account role issued by the identity provider
type Role string

const (
	RoleFamily   Role = "family"
	RoleProvider Role = "provider"
)

// Valid reports whether r is one of the two marketplace roles.
func (r Role) Valid() bool {
	return r == RoleFamily || r == RoleProvider
}

// Profile profiles table: one row per identity-provider account.
// Role decides whether the account owns a families row or an agencies row.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
