package auth

import (
	"context"

	"github.com/google/uuid"
)

// Requirement is a named set of capabilities that must ALL be present
// on the caller's admin profile for an operation to proceed.
type Requirement struct {
	Name         string
	Capabilities []string
}

// NewRequirement builds a requirement from capability names.
func NewRequirement(name string, capabilities ...string) Requirement {
	return Requirement{Name: name, Capabilities: capabilities}
}

// Common requirements for the built in capability set.
var (
	RequireSuperAdmin    = NewRequirement("super_admin", CapabilitySuperAdmin)
	RequireManageUsers   = NewRequirement("manage_users", CapabilityManageUsers)
	RequireManageContent = NewRequirement("manage_content", CapabilityManageContent)
)

// RightsGuard gates operations on admin capabilities. Every denial
// surfaces as the same forbidden error so a caller can not distinguish
// a missing profile from a missing capability.
type RightsGuard struct {
	admins Admins
	logger Logger
}

func NewRightsGuard(admins Admins) *RightsGuard {
	return &RightsGuard{
		admins: admins,
		logger: defLogger{},
	}
}

func (g *RightsGuard) WithLogger(logger Logger) *RightsGuard {
	g.logger = normalizeLogger(logger)
	return g
}

// Authorize checks that the user's admin profile grants every
// capability in the requirement. An empty requirement always passes.
func (g *RightsGuard) Authorize(ctx context.Context, userID uuid.UUID, required Requirement) error {
	if len(required.Capabilities) == 0 {
		return nil
	}

	admin, err := g.admins.GetByUserID(ctx, userID)
	if err != nil {
		g.logger.Debug("rights check %s failed to load admin profile for user %s: %v",
			required.Name, userID.String(), err)
		return g.deny(required)
	}

	for _, capability := range required.Capabilities {
		if !admin.HasCapability(capability) {
			g.logger.Debug("rights check %s denied user %s: missing %s",
				required.Name, userID.String(), capability)
			return g.deny(required)
		}
	}

	return nil
}

// AuthorizeIdentity is Authorize for callers holding a validated
// Identity instead of a parsed user id.
func (g *RightsGuard) AuthorizeIdentity(ctx context.Context, identity Identity, required Requirement) error {
	if len(required.Capabilities) == 0 {
		return nil
	}

	if identity == nil {
		return g.deny(required)
	}

	userID, err := parseUserID(identity.ID())
	if err != nil {
		return g.deny(required)
	}

	return g.Authorize(ctx, userID, required)
}

func (g *RightsGuard) deny(required Requirement) error {
	clone := ErrInsufficientRights.Clone()
	if clone == nil {
		return ErrInsufficientRights
	}
	clone.Source = ErrInsufficientRights
	return clone.WithMetadata(map[string]any{
		"requirement": required.Name,
	})
}

// Protect wraps an operation so it only runs when the user satisfies
// the requirement.
func (g *RightsGuard) Protect(required Requirement, op func(ctx context.Context, userID uuid.UUID) error) func(ctx context.Context, userID uuid.UUID) error {
	return func(ctx context.Context, userID uuid.UUID) error {
		if err := g.Authorize(ctx, userID, required); err != nil {
			return err
		}
		return op(ctx, userID)
	}
}
