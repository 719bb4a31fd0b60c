package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is ordered: RoleUser < RoleModerator < RoleAdmin.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "moderator":
		return RoleModerator, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

// AtLeast reports whether r grants every permission of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// CanManage reports whether an actor with role r may act on a user with role target.
// Admins manage everyone below admin; moderators manage plain users only.
func (r Role) CanManage(target Role) bool {
	if !r.Valid() || !target.Valid() {
		return false
	}
	switch r {
	case RoleAdmin:
		return target < RoleAdmin
	case RoleModerator:
		return target == RoleUser
	default:
		return false
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Status string

const (
	StatusActive      Status = "active"
	StatusSuspended   Status = "suspended"
	StatusDeactivated Status = "deactivated"
)

type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)

type User struct {
	ID             uuid.UUID    `json:"id"`
	Email          string       `json:"email"`
	Username       string       `json:"username"`
	PasswordHash   *string      `json:"-"`
	FullName       string       `json:"full_name"`
	Bio            string       `json:"bio"`
	Role           Role         `json:"role"`
	Status         Status       `json:"status"`
	EmailVerified  bool         `json:"email_verified"`
	AuthProvider   AuthProvider `json:"auth_provider"`
	ProfilePicture *string      `json:"profile_picture,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
