package domain

import "time"

// TransactionType tags the direction of a stock movement
type TransactionType string

const (
	TransactionIssue  TransactionType = "issue"
	TransactionReturn TransactionType = "return"
)

// Valid reports whether the type is one of the known movement types
func (t TransactionType) Valid() bool {
	return t == TransactionIssue || t == TransactionReturn
}

// Transaction is one immutable ledger entry. Once appended only the
// cancellation metadata may change, and only once.
type Transaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ItemID       uint            `json:"item_id" gorm:"not null;index"`
	DepartmentID uint            `json:"department_id" gorm:"not null;index"`
	Type         TransactionType `json:"type" gorm:"size:10;not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	BeforeStock  int             `json:"before_stock" gorm:"not null"`
	AfterStock   int             `json:"after_stock" gorm:"not null"`
	Remarks      string          `json:"remarks,omitempty" gorm:"size:500"`
	ProcessedBy  string          `json:"processed_by" gorm:"size:100;not null"`
	ProcessedAt  time.Time       `json:"processed_at" gorm:"not null;index"`
	IsCancelled  bool            `json:"is_cancelled" gorm:"not null;default:false"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	CancelledBy  string          `json:"cancelled_by,omitempty" gorm:"size:100"`
	Version      int64           `json:"version" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}
