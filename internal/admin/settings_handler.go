package admin

import (
	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/logging"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"
	"cashdesk-backend/internal/tolerance"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CashToleranceRequest struct {
	Tolerance money.Money `json:"tolerance"`
}

type CashToleranceResponse struct {
	BranchID  uint        `json:"branch_id"`
	Tolerance money.Money `json:"tolerance"`
}

// GET /api/admin/branches/:id/settings/cash-tolerance
func GetCashToleranceHandler(db *gorm.DB, src tolerance.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}
		tol, err := src.Tolerance(c.UserContext(), branch.ID)
		if err != nil {
			return err
		}
		return c.JSON(CashToleranceResponse{BranchID: branch.ID, Tolerance: tol})
	}
}

// PUT /api/admin/branches/:id/settings/cash-tolerance
// The new value applies to the next close; nothing is cached.
func SetCashToleranceHandler(db *gorm.DB, src tolerance.Source, w tolerance.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := branchParam(c, db)
		if err != nil {
			return err
		}
		caller, err := auth.Identify(c)
		if err != nil {
			return err
		}

		var body CashToleranceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "tolerance must be an amount with at most two decimals")
		}
		if body.Tolerance.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "tolerance cannot be negative")
		}
		if !body.Tolerance.InRange() {
			return fiber.NewError(fiber.StatusBadRequest, "tolerance is too large")
		}

		before, err := src.Tolerance(c.UserContext(), branch.ID)
		if err != nil {
			return err
		}
		if err := w.Set(c.UserContext(), branch.ID, caller.UserID, body.Tolerance); err != nil {
			return err
		}

		if err := audit.Write(db.WithContext(c.UserContext()), audit.LogOptions{
			BranchID:    &branch.ID,
			UserID:      caller.UserID,
			EntityType:  audit.EntityBranchSetting,
			EntityID:    branch.ID,
			Action:      models.AuditActionUpdate,
			Description: "cash tolerance set to " + body.Tolerance.String(),
			Before:      CashToleranceResponse{BranchID: branch.ID, Tolerance: before},
			After:       CashToleranceResponse{BranchID: branch.ID, Tolerance: body.Tolerance},
		}); err != nil {
			logging.FromCtx(c).WithError(err).Warn("tolerance changed but audit entry failed")
		}

		logging.FromCtx(c).WithFields(logrus.Fields{
			"branch_id": branch.ID,
			"before":    before.String(),
			"after":     body.Tolerance.String(),
		}).Info("cash tolerance updated")
		return c.JSON(CashToleranceResponse{BranchID: branch.ID, Tolerance: body.Tolerance})
	}
}
