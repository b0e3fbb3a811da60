package admin

import (
	"strings"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/logging"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateBranchUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"` // branch_admin or cashier, cashier when empty
}

type BranchUserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	BranchID  *uint  `json:"branch_id"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u models.User) BranchUserResponse {
	return BranchUserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		BranchID:  u.BranchID,
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
}

// POST /api/admin/branches/:id/users
// Only a super admin may create branch admins; branch admins add cashiers.
func CreateBranchUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}
		caller, err := auth.Identify(c)
		if err != nil {
			return err
		}

		var body CreateBranchUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Role == "" {
			body.Role = models.RoleCashier
		}

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, email and password are required")
		}
		switch body.Role {
		case models.RoleCashier:
		case models.RoleBranchAdmin:
			if !caller.IsSuperAdmin() {
				return fiber.NewError(fiber.StatusForbidden, "only a super admin can create branch admins")
			}
		default:
			return fiber.NewError(fiber.StatusBadRequest, "role must be branch_admin or cashier")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         body.Role,
			BranchID:     &branch.ID,
		}
		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "email already registered")
			}
			return err
		}

		logging.FromCtx(c).WithFields(logrus.Fields{
			"branch_id": branch.ID,
			"user_id":   user.ID,
			"role":      user.Role,
		}).Info("branch user created")
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// GET /api/admin/branches/:id/users
func ListBranchUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}

		var users []models.User
		if err := db.WithContext(c.UserContext()).
			Where("branch_id = ?", branch.ID).
			Order("created_at DESC, id DESC").
			Find(&users).Error; err != nil {
			return err
		}

		res := make([]BranchUserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, toUserResponse(u))
		}
		return c.JSON(res)
	}
}
