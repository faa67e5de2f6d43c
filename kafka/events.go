package kafka

import "time"

// StockMovementEvent is emitted for every committed ledger movement
type StockMovementEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	TransactionID uint      `json:"transaction_id"`
	ItemID        uint      `json:"item_id"`
	ItemCode      string    `json:"item_code,omitempty"`
	DepartmentID  uint      `json:"department_id"`
	Quantity      int       `json:"quantity"`
	BeforeStock   int       `json:"before_stock"`
	AfterStock    int       `json:"after_stock"`
	MinimumStock  int       `json:"minimum_stock"`
	ProcessedBy   string    `json:"processed_by"`
	Timestamp     time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeStockIssued    = "stock.issued"
	EventTypeStockCancelled = "stock.cancelled"
)

// Kafka topics
const (
	TopicStockMovements = "stock-movements"
)
