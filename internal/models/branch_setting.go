package models

import "time"

const SettingCashTolerance = "cash_tolerance"

// BranchSetting is a free-form key/value pair owned by a branch.
type BranchSetting struct {
	BranchID  uint   `gorm:"primaryKey"`
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"size:255;not null"`
	UpdatedBy uint
	UpdatedAt time.Time
}
