package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	Address   *string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch lists the fields an update may touch. Email and Name cannot be cleared.
type UserPatch struct {
	Name    Optional[string]
	Email   Optional[string]
	Phone   Optional[string]
	Address Optional[string]
	Status  Optional[UserStatus]
}

type UserFilter struct {
	Status *UserStatus
	Search string
	Page   Page
}

// NormalizeEmail trims and lower-cases an address and checks its shape.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(e[strings.LastIndex(e, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return e, nil
}
