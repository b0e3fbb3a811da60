package models

import "time"

// Branch is one restaurant; every shift, register and setting is scoped to it.
type Branch struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users     []User
	Registers []Register
}
