package admin

import (
	"errors"
	"strconv"
	"strings"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/logging"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const timeLayout = "2006-01-02 15:04:05"

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

func toBranchResponse(b models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		CreatedAt: b.CreatedAt.Format(timeLayout),
	}
}

// branchParam resolves :id and checks the caller may manage that branch:
// super admins any, branch admins only their own.
func branchParam(c *fiber.Ctx, db *gorm.DB) (models.Branch, error) {
	raw, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || raw == 0 {
		return models.Branch{}, fiber.NewError(fiber.StatusBadRequest, "invalid branch id")
	}
	id, err := auth.Identify(c)
	if err != nil {
		return models.Branch{}, err
	}
	if !id.IsSuperAdmin() && id.BranchID != uint(raw) {
		return models.Branch{}, fiber.NewError(fiber.StatusForbidden, "not allowed for this branch")
	}

	var branch models.Branch
	if err := db.WithContext(c.UserContext()).First(&branch, raw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Branch{}, fiber.NewError(fiber.StatusNotFound, "branch not found")
		}
		return models.Branch{}, err
	}
	return branch, nil
}

// POST /api/admin/branches
func CreateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "branch name is required")
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: body.Address,
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.WithContext(c.UserContext()).Create(&branch).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "a branch with this name already exists")
			}
			return err
		}

		logging.FromCtx(c).WithField("branch_id", branch.ID).Info("branch created")
		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(branch))
	}
}

// GET /api/admin/branches
func ListBranchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := db.WithContext(c.UserContext()).Order("id").Find(&branches).Error; err != nil {
			return err
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, toBranchResponse(b))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/branches/:id
func GetBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}
		return c.JSON(toBranchResponse(branch))
	}
}

// PUT /api/admin/branches/:id
func UpdateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}

		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "branch name is required")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = *body.Address
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.WithContext(c.UserContext()).Save(&branch).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "a branch with this name already exists")
			}
			return err
		}
		return c.JSON(toBranchResponse(branch))
	}
}
