package domain

import (
	"time"
)

// Item represents a physical stock item tracked by the ledger
type Item struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Code         string    `json:"code" gorm:"uniqueIndex;size:20;not null"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Description  string    `json:"description,omitempty" gorm:"size:500"`
	Unit         string    `json:"unit" gorm:"size:10;default:'pcs'"`
	CurrentStock int       `json:"current_stock" gorm:"not null;default:0"`
	MinimumStock int       `json:"minimum_stock" gorm:"not null;default:0"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	Version      int64     `json:"version" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Item) TableName() string {
	return "items"
}
