package admin

import (
	"strings"

	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateRegisterRequest struct {
	Name string `json:"name"`
}

type RegisterResponse struct {
	ID        uint   `json:"id"`
	BranchID  uint   `json:"branch_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// POST /api/admin/branches/:id/registers
func CreateRegisterHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}

		var body CreateRegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "register name is required")
		}

		reg := models.Register{BranchID: branch.ID, Name: body.Name}
		if err := db.WithContext(c.UserContext()).Create(&reg).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "register name already used in this branch")
			}
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
			ID:        reg.ID,
			BranchID:  reg.BranchID,
			Name:      reg.Name,
			CreatedAt: reg.CreatedAt.Format(timeLayout),
		})
	}
}

// GET /api/admin/branches/:id/registers
func ListRegistersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}

		var regs []models.Register
		if err := db.WithContext(c.UserContext()).
			Where("branch_id = ?", branch.ID).
			Order("name").
			Find(&regs).Error; err != nil {
			return err
		}

		res := make([]RegisterResponse, 0, len(regs))
		for _, r := range regs {
			res = append(res, RegisterResponse{
				ID:        r.ID,
				BranchID:  r.BranchID,
				Name:      r.Name,
				CreatedAt: r.CreatedAt.Format(timeLayout),
			})
		}
		return c.JSON(res)
	}
}
