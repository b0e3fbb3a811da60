package auth

import (
	"strconv"
	"strings"

	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxBranchIDKey = "branch_id"
)

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxBranchIDKey, claims.BranchID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role missing from token")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "not allowed for this role")
	}
}

// Identity is the authenticated caller plus the branch the request acts on.
type Identity struct {
	UserID   uint
	Role     models.UserRole
	BranchID uint
}

func (i Identity) IsSuperAdmin() bool { return i.Role == models.RoleSuperAdmin }

// Identify reads the caller from the JWT locals. Branch users are pinned to
// the branch in their token; a super admin chooses one with ?branch_id=,
// which may be left out (BranchID is then 0).
func Identify(c *fiber.Ctx) (Identity, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	id := Identity{UserID: userID, Role: role}

	if role == models.RoleSuperAdmin {
		if raw := c.Query("branch_id"); raw != "" {
			bid, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || bid == 0 {
				return Identity{}, fiber.NewError(fiber.StatusBadRequest, "invalid branch_id")
			}
			id.BranchID = uint(bid)
		}
		return id, nil
	}

	bPtr, _ := c.Locals(CtxBranchIDKey).(*uint)
	if bPtr == nil || *bPtr == 0 {
		return Identity{}, fiber.NewError(fiber.StatusForbidden, "user is not assigned to a branch")
	}
	id.BranchID = *bPtr
	return id, nil
}

// BranchScope is Identify for routes that only make sense inside one branch.
func BranchScope(c *fiber.Ctx) (Identity, error) {
	id, err := Identify(c)
	if err != nil {
		return id, err
	}
	if id.BranchID == 0 {
		return id, fiber.NewError(fiber.StatusBadRequest, "branch_id is required")
	}
	return id, nil
}
