package domain

import "time"

// Department is the receiving side of an issue movement. Referential data,
// never mutated by the ledger engine.
type Department struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"uniqueIndex;size:20;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Department) TableName() string {
	return "departments"
}
