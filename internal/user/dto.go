// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student admin"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AccountResponse struct {
	UserResponse
	BroadSubscription bool      `json:"broad_subscription"`
	LiveOrders        int       `json:"live_orders"`
	CheckedAt         time.Time `json:"checked_at"`
}

type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = 20
	case p.PageSize > 100:
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	return out
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		UserResponse:      ToUserResponse(&a.User),
		BroadSubscription: a.BroadSubscription,
		LiveOrders:        a.LiveOrders,
		CheckedAt:         a.CheckedAt,
	}
}
