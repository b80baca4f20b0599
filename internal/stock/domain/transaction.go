package domain

import "time"

// TransactionKind is the kind of stock movement recorded by the remote API
type TransactionKind string

const (
	TransactionAdd      TransactionKind = "add"
	TransactionSubtract TransactionKind = "subtract"
	TransactionDefect   TransactionKind = "defect"
	TransactionCreate   TransactionKind = "create"
	TransactionDelete   TransactionKind = "delete"
	TransactionProduce  TransactionKind = "produce"
)

// Transaction is one entry of the remote stock history
type Transaction struct {
	ID           string          `json:"id"`
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Kind         TransactionKind `json:"kind"`
	Quantity     float64         `json:"quantity"`
	Note         string          `json:"note,omitempty"`
	PerformedBy  string          `json:"performed_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TransactionFilter narrows the transaction history
type TransactionFilter struct {
	MaterialID string
	From       *time.Time
	To         *time.Time
}
