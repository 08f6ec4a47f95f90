// AngelaMos | 2026
// users.go

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/user"
)

type userRepo struct{ s *Store }

func (r userRepo) live(id string) (user.User, bool) {
	u, ok := r.s.users[id]
	if !ok || u.IsDeleted() {
		return user.User{}, false
	}
	return u, true
}

func (r userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if !existing.IsDeleted() && existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	u.CreatedAt = r.s.stamp()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.live(id)
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if !u.IsDeleted() && u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (r userRepo) SetRole(_ context.Context, id, role string) (*user.User, error) {
	var out user.User
	err := r.mutate(id, "set role", func(existing *user.User) {
		existing.Role = role
		out = *existing
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, "update password", func(existing *user.User) {
		existing.PasswordHash = passwordHash
	})
}

func (r userRepo) IncrementTokenVersion(_ context.Context, id string) error {
	return r.mutate(id, "increment token version", func(existing *user.User) {
		existing.TokenVersion++
	})
}

func (r userRepo) SoftDelete(_ context.Context, id string) error {
	return r.mutate(id, "delete user", func(existing *user.User) {
		existing.DeletedAt = ptr(r.s.now())
		existing.TokenVersion++
	})
}

func (r userRepo) mutate(id, op string, fn func(u *user.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.live(id)
	if !ok {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	u.UpdatedAt = r.s.now()
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r userRepo) List(_ context.Context, params user.ListUsersParams) ([]user.User, int, error) {
	params.Normalize()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(params.Search)

	var all []user.User
	for _, u := range r.s.users {
		if u.IsDeleted() {
			continue
		}
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	return paginate(all, params.Offset(), params.PageSize), len(all), nil
}

func (r userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if !u.IsDeleted() && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
