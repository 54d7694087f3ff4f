package middleware

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

type roleSet map[string]struct{}

func newRoleSet(roles ...string) roleSet {
	set := make(roleSet, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func (s roleSet) has(role string) bool {
	_, ok := s[role]
	return ok
}

func (s roleSet) names() []string {
	names := make([]string, 0, len(s))
	for role := range s {
		names = append(names, role)
	}
	sort.Strings(names)
	return names
}

// RequireRole guards a route group. Requests without a role are treated as
// unauthenticated; other roles outside roles are forbidden.
func RequireRole(roles ...string) fiber.Handler {
	allowed := newRoleSet(roles...)
	detail := []string{"requires one of: " + strings.Join(allowed.names(), ", ")}

	return func(c *fiber.Ctx) error {
		role := normalizeRoleValue(c.Locals("user_role"))
		if role == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if !allowed.has(role) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", detail)
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	}
}
