package audit

import (
	"strconv"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxAuditRows = 500

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	BranchID    *uint              `json:"branch_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

func uintQuery(c *fiber.Ctx, key string) (uint, bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, false, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return uint(v), true, nil
}

// GET /api/audit-logs?entity_type=shift&entity_id=1&user_id=2&branch_id=1
// Branch users only see their branch; a super admin sees every branch unless
// branch_id narrows it.
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.Identify(c)
		if err != nil {
			return err
		}

		q := db.WithContext(c.UserContext()).Model(&models.AuditLog{})
		if id.BranchID != 0 {
			q = q.Where("branch_id = ?", id.BranchID)
		}
		if et := c.Query("entity_type"); et != "" {
			q = q.Where("entity_type = ?", et)
		}
		for _, col := range []string{"entity_id", "user_id"} {
			v, ok, err := uintQuery(c, col)
			if err != nil {
				return err
			}
			if ok {
				q = q.Where(col+" = ?", v)
			}
		}

		var logs []models.AuditLog
		if err := q.Order("created_at DESC, id DESC").Limit(maxAuditRows).Find(&logs).Error; err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				BranchID:    l.BranchID,
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
