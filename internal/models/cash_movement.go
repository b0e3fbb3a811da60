package models

import (
	"time"

	"cashdesk-backend/internal/money"
)

type MovementType string

const (
	MovementIncome     MovementType = "INCOME"
	MovementExpense    MovementType = "EXPENSE"
	MovementWithdrawal MovementType = "WITHDRAWAL"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIncome, MovementExpense, MovementWithdrawal:
		return true
	}
	return false
}

// CashMovement is one ledger entry of a shift. Amount is always positive; the
// direction comes from Type. Entries are never updated or deleted, a mistake
// is corrected with an offsetting entry.
type CashMovement struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ShiftID   uint         `gorm:"index;not null" json:"shift_id"`
	Shift     *Shift       `json:"-"`
	Type      MovementType `gorm:"size:20;not null" json:"type"`
	Amount    money.Money  `gorm:"type:bigint;not null" json:"amount"`
	Concept   string       `gorm:"size:255;not null" json:"concept"`
	Reference string       `gorm:"size:100" json:"reference,omitempty"`
	CreatedBy uint         `json:"created_by"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// Signed is the movement's effect on the drawer balance.
func (m CashMovement) Signed() money.Money {
	if m.Type == MovementIncome {
		return m.Amount
	}
	return m.Amount.Neg()
}
