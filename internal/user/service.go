// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/coursehub/internal/auth"
	"github.com/carterperez-dev/coursehub/internal/core"
)

type SubscriptionChecker interface {
	HasActiveBroadSubscription(ctx context.Context, userID string, now time.Time) (bool, error)
}

type OrderCounter interface {
	CountLive(ctx context.Context, userID string, now time.Time) (int, error)
}

type Service struct {
	repo   Repository
	subs   SubscriptionChecker
	orders OrderCounter
	now    core.Clock
	logger *slog.Logger
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		now:    core.SystemClock,
		logger: slog.Default(),
	}
}

// WithHoldings lets accounts report purchase status and lets Delete refuse
// users that still hold live orders.
func (s *Service) WithHoldings(
	subs SubscriptionChecker,
	orders OrderCounter,
	now core.Clock,
) *Service {
	s.subs = subs
	s.orders = orders
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

// Create registers a student. Admin accounts are only made by promotion.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	email = normalizeEmail(email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         RoleStudent,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return toUserInfo(u), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Account loads userID and what they currently hold.
func (s *Service) Account(ctx context.Context, userID string) (*Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("get account: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	a := &Account{User: *u, CheckedAt: s.now()}

	if s.subs != nil {
		a.BroadSubscription, err = s.subs.HasActiveBroadSubscription(ctx, userID, a.CheckedAt)
		if err != nil {
			return nil, fmt.Errorf("get account: %w", err)
		}
	}
	if s.orders != nil {
		a.LiveOrders, err = s.orders.CountLive(ctx, userID, a.CheckedAt)
		if err != nil {
			return nil, fmt.Errorf("get account: %w", err)
		}
	}

	return a, nil
}

func (s *Service) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// ChangeRole sets targetID's role. Admins cannot demote themselves, so the
// last admin cannot lock everyone out by accident.
func (s *Service) ChangeRole(ctx context.Context, actorID, targetID, role string) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("change role: %q: %w", role, core.ErrInvalidInput)
	}
	if actorID == targetID && role != RoleAdmin {
		return nil, fmt.Errorf("change role: cannot demote yourself: %w", core.ErrInvalidState)
	}

	u, err := s.repo.SetRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		"user_id", targetID,
		"role", role,
		"changed_by", actorID,
	)
	return u, nil
}

// Delete soft deletes targetID. Other admins and users holding live
// orders are refused.
func (s *Service) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("delete user: cannot delete yourself: %w", core.ErrInvalidState)
	}

	a, err := s.Account(ctx, targetID)
	if err != nil {
		return err
	}
	if a.User.IsAdmin() {
		return fmt.Errorf("delete user: target is an admin: %w", core.ErrForbidden)
	}
	if !a.Deletable() {
		return fmt.Errorf(
			"delete user: %d live orders: %w",
			a.LiveOrders,
			core.ErrInvalidState,
		)
	}

	if err := s.repo.SoftDelete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", targetID, "deleted_by", actorID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
