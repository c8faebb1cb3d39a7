package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
)

type UserService struct {
	users  userRepository
	orders openOrderCounter
	db     *sql.DB
}

func NewUserService(users userRepository, orders openOrderCounter, db *sql.DB) *UserService {
	return &UserService{users: users, orders: orders, db: db}
}

type CreateUserRequest struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
}

func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidName)
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := s.ensureEmailFree(ctx, email, uuid.Nil); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     trimOptional(req.Phone),
		Address:   trimOptional(req.Address),
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	logging.FromContext(ctx).Info("user created", "user_id", u.ID)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	u, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, f domain.UserFilter) (*domain.PageResult[domain.User], error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, fmt.Errorf("List: %w", domain.ErrInvalidStatus)
	}
	f.Search = strings.TrimSpace(f.Search)

	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return &domain.PageResult[domain.User]{Items: users, Total: total, Limit: f.Page.Limit, Offset: f.Page.Offset}, nil
}

// Update merges the patch into the stored user. Moving a user to inactive is
// refused while they still have open orders.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, p domain.UserPatch) (*domain.User, error) {
	p, err := s.normalizePatch(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Update: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.users.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if p.Status.Set && *p.Status.Value == domain.UserStatusInactive && current.Status != domain.UserStatusInactive {
		open, err := s.orders.CountByUser(ctx, tx, id, domain.OpenOrderStatuses)
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		if open > 0 {
			return nil, fmt.Errorf("Update: %w",
				domain.WithReason(domain.ErrUserHasOpenOrders, fmt.Sprintf("%d open orders", open)))
		}
	}

	updated, err := s.users.Update(ctx, tx, id, p)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Update: commit: %w", err)
	}

	if updated.Status != current.Status {
		logging.FromContext(ctx).Info("user status changed",
			"user_id", id, "from", current.Status, "to", updated.Status)
	}
	return updated, nil
}

// Deactivate is the soft delete. Users are never removed.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.Update(ctx, id, domain.UserPatch{Status: domain.Some(domain.UserStatusInactive)})
	if err != nil {
		return nil, fmt.Errorf("Deactivate: %w", err)
	}
	return u, nil
}

func (s *UserService) normalizePatch(ctx context.Context, id uuid.UUID, p domain.UserPatch) (domain.UserPatch, error) {
	if p.Name.Set {
		if p.Name.IsNull() || strings.TrimSpace(*p.Name.Value) == "" {
			return p, domain.ErrInvalidName
		}
		p.Name = domain.Some(strings.TrimSpace(*p.Name.Value))
	}

	if p.Email.Set {
		if p.Email.IsNull() {
			return p, domain.ErrInvalidEmail
		}
		email, err := domain.NormalizeEmail(*p.Email.Value)
		if err != nil {
			return p, err
		}
		if err := s.ensureEmailFree(ctx, email, id); err != nil {
			return p, err
		}
		p.Email = domain.Some(email)
	}

	if p.Status.Set && (p.Status.IsNull() || !p.Status.Value.IsValid()) {
		return p, domain.ErrInvalidStatus
	}

	if p.Phone.Set && !p.Phone.IsNull() {
		p.Phone.Value = trimOptional(p.Phone.Value)
	}
	if p.Address.Set && !p.Address.IsNull() {
		p.Address.Value = trimOptional(p.Address.Value)
	}
	return p, nil
}

// ensureEmailFree is the friendly pre-check. The unique index on lower(email)
// still catches a concurrent insert of the same address.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("ensureEmailFree: %w", err)
	}
	if existing.ID == self {
		return nil
	}
	return domain.ErrDuplicateEmail
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
