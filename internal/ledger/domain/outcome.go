package domain

// ErrorCode is the machine-readable classification of a failed movement
type ErrorCode string

const (
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	CodeItemNotFound      ErrorCode = "ITEM_NOT_FOUND"
	CodeUpdateFailed      ErrorCode = "UPDATE_FAILED"
	CodeNoTransaction     ErrorCode = "NO_TRANSACTION"
	CodeCancelFailed      ErrorCode = "CANCEL_FAILED"
	CodeSystemError       ErrorCode = "SYSTEM_ERROR"
	CodeValidationError   ErrorCode = "VALIDATION_ERROR"
)

// TransactionOutcome is the structured result of a stock movement operation.
// Failures never escape the orchestrator as panics; they are folded into an
// outcome with a code and a human-readable message.
type TransactionOutcome struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction,omitempty"`
	ErrorCode   ErrorCode    `json:"error_code,omitempty"`
}

// Succeeded builds a success outcome carrying the recorded transaction
func Succeeded(message string, tx *Transaction) *TransactionOutcome {
	return &TransactionOutcome{Success: true, Message: message, Transaction: tx}
}

// Failed builds a failure outcome with a code and message
func Failed(code ErrorCode, message string) *TransactionOutcome {
	return &TransactionOutcome{Success: false, Message: message, ErrorCode: code}
}
