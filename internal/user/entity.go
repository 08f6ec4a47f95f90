// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleAdmin
}

// Account is a user together with the purchases they hold at a point in
// time. Holdings are zero when the service has no source for them.
type Account struct {
	User              User
	BroadSubscription bool
	LiveOrders        int
	CheckedAt         time.Time
}

// Deletable reports whether the account may be removed without orphaning
// paid access.
func (a *Account) Deletable() bool {
	return a.LiveOrders == 0
}
