package models

import (
	"time"

	"cashdesk-backend/internal/denomination"
	"cashdesk-backend/internal/money"
)

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

// Shift is one cash drawer session. The closing fields stay NULL until the
// single OPEN -> CLOSED transition; after that the row is never written again.
type Shift struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	BranchID    uint        `gorm:"not null;index:idx_shifts_branch_status" json:"branch_id"`
	OperatorID  uint        `gorm:"not null;index" json:"operator_id"`
	RegisterID  *uint       `gorm:"index" json:"register_id,omitempty"`
	Turn        string      `gorm:"size:50" json:"turn"`
	OpeningCash money.Money `gorm:"type:bigint;not null" json:"opening_cash"`
	OpenedAt    time.Time   `gorm:"not null" json:"opened_at"`
	Notes       string      `gorm:"size:500" json:"notes,omitempty"`
	Status      ShiftStatus `gorm:"size:10;not null;index:idx_shifts_branch_status" json:"status"`

	ClosingCash    *money.Money       `gorm:"type:bigint" json:"closing_cash,omitempty"`
	ExpectedCash   *money.Money       `gorm:"type:bigint" json:"expected_cash,omitempty"`
	CountedCash    *money.Money       `gorm:"type:bigint" json:"counted_cash,omitempty"`
	Difference     *money.Money       `gorm:"type:bigint" json:"difference,omitempty"`
	ManualOverride bool               `gorm:"not null;default:false" json:"manual_override"`
	Denominations  denomination.Count `gorm:"type:text;serializer:json" json:"denominations,omitempty"`
	ClosingNotes   string             `gorm:"size:500" json:"closing_notes,omitempty"`
	ClosedBy       *uint              `json:"closed_by,omitempty"`
	ClosedAt       *time.Time         `gorm:"index" json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (s *Shift) IsOpen() bool { return s.Status == ShiftOpen }

// ShiftLock holds one exclusivity key of an open shift. The primary key is
// what stops two open shifts from sharing an operator, register or branch.
type ShiftLock struct {
	Key       string `gorm:"primaryKey;size:128"`
	ShiftID   uint   `gorm:"not null;index"`
	CreatedAt time.Time
}
