package audit

import (
	"encoding/json"
	"fmt"

	"cashdesk-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntityShift         = "shift"
	EntityCashMovement  = "cash_movement"
	EntityBranchSetting = "branch_setting"
)

type LogOptions struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Write stores one audit row using tx, so the entry commits or rolls back
// together with the change it describes. When UserName is empty it is looked
// up from the users table.
func Write(tx *gorm.DB, opts LogOptions) error {
	before, err := encode(opts.Before)
	if err != nil {
		return err
	}
	after, err := encode(opts.After)
	if err != nil {
		return err
	}

	name := opts.UserName
	if name == "" && opts.UserID != 0 {
		var u models.User
		if tx.Select("name").Take(&u, opts.UserID).Error == nil {
			name = u.Name
		}
	}

	entry := models.AuditLog{
		BranchID:    opts.BranchID,
		UserID:      opts.UserID,
		UserName:    name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  before,
		AfterData:   after,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// encode renders v as JSON; nil becomes the JSON literal null.
func encode(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode audit payload: %w", err)
	}
	return string(b), nil
}
