package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an owner role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// User is the identity record backing every credential flow
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Verified      bool       `bun:"is_verified" json:"is_verified"`
	Blocked       bool       `bun:"is_blocked" json:"is_blocked"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Public returns a copy of the user that is safe to hand back to
// callers, credentials stripped.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	pub := *u
	pub.PasswordHash = ""
	return &pub
}

// Capability flag names evaluated by the RightsGuard. Unknown names
// always evaluate to false.
const (
	CapabilitySuperAdmin    = "is_super_admin"
	CapabilityManageUsers   = "can_manage_users"
	CapabilityManageContent = "can_manage_content"
)

// Admin is the authorization profile linked one-to-one to a User.
// Deleting the user removes its admin profile as well.
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	SuperAdmin    bool       `bun:"is_super_admin" json:"is_super_admin"`
	ManageUsers   bool       `bun:"can_manage_users" json:"can_manage_users"`
	ManageContent bool       `bun:"can_manage_content" json:"can_manage_content"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasCapability reports whether the named capability flag is set. A nil
// admin or an unknown flag name never grants anything.
func (a *Admin) HasCapability(name string) bool {
	if a == nil {
		return false
	}
	switch name {
	case CapabilitySuperAdmin:
		return a.SuperAdmin
	case CapabilityManageUsers:
		return a.ManageUsers
	case CapabilityManageContent:
		return a.ManageContent
	default:
		return false
	}
}

// OtpType identifies the purpose an OTP was minted for
type OtpType = string

const (
	// OtpTypeVerifyAccount codes confirm ownership of the registration email
	OtpTypeVerifyAccount OtpType = "verify_account"
	// OtpTypeResetPassword codes authorize a password reset
	OtpTypeResetPassword OtpType = "reset_password"
)

// OtpStatus is the lifecycle state of an OTP code
type OtpStatus = string

const (
	// OtpStatusUnused is the initial state, the only state a code matches in
	OtpStatusUnused OtpStatus = "unused"
	// OtpStatusUsed is terminal, set once the dependent effect committed
	OtpStatusUsed OtpStatus = "used"
	// OtpStatusInvalid is terminal, set when superseded or expired
	OtpStatusInvalid OtpStatus = "invalid"
)

// OtpCode is a short lived numeric credential bound to a user and purpose
type OtpCode struct {
	bun.BaseModel `bun:"table:otp_codes,alias:otp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Value         string     `bun:"value,notnull" json:"-"`
	Type          OtpType    `bun:"type,notnull" json:"type,omitempty"`
	Status        OtpStatus  `bun:"status,notnull" json:"status,omitempty"`
	ExpiresAt     time.Time  `bun:"expiration_time,notnull" json:"expiration_time,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the code's expiration timestamp has passed. A
// code only matches while the expiration is strictly in the future.
func (c *OtpCode) Expired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !now.Before(c.ExpiresAt)
}
