package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// Roles understood by WithAuth and RequireRole.
const (
	AuthRoleAny       = "any"
	AuthRoleAdmin     = "admin"
	AuthRoleModerator = "moderator"
	AuthRoleAlumni    = "alumni"
)

// roleGrants lists the token roles that satisfy a required role.
var roleGrants = map[string][]string{
	AuthRoleAlumni: {AuthRoleAlumni, AuthRoleModerator, AuthRoleAdmin},
	AuthRoleAdmin:  {AuthRoleAdmin, AuthRoleModerator},
}

// AuthOptions configures WithAuth.
type AuthOptions struct {
	Role string
	// AllowAnonymous admits requests without a user, only for AuthRoleAny.
	AllowAnonymous bool
}

// WithAuth guards a single handler, for routes whose group is open to every
// authenticated user but whose writes need a member role.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	required := strings.ToLower(strings.TrimSpace(opts.Role))
	if required == "" {
		required = AuthRoleAny
	}
	accepted := grantedRoles(required)

	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(uint)
		if userID == 0 {
			if required == AuthRoleAny && opts.AllowAnonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if required != AuthRoleAny && !accepted.has(normalizeRoleValue(c.Locals("user_role"))) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}

func grantedRoles(required string) roleSet {
	if grants, ok := roleGrants[required]; ok {
		return newRoleSet(grants...)
	}
	return newRoleSet(required)
}
