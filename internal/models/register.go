package models

import "time"

// Register is a physical cash drawer / terminal inside a branch.
type Register struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"not null;uniqueIndex:idx_registers_branch_name"`
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_registers_branch_name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
