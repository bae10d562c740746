package model

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusDone      = "DONE"
	StatusCancelled = "CANCELLED"
)

type Transaction struct {
	ID            int64                  `json:"-"`
	TransactionID string                 `json:"id"`
	CustomerID    string                 `json:"customer_id"`
	Status        string                 `json:"status"`
	Items         []AvailedService       `json:"availed_services"`
	CreatedAt     time.Time              `json:"created_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

func (transaction *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(transaction)
}

// Complete reports whether the transaction qualifies for settlement: it is
// still pending, has at least one availed service, and every item has been
// served. An empty item list never qualifies.
func (transaction *Transaction) Complete() bool {
	if transaction.Status != StatusPending || len(transaction.Items) == 0 {
		return false
	}
	for _, item := range transaction.Items {
		if !item.Served() {
			return false
		}
	}
	return true
}

// CommissionsByAccount sums the commission of every served item per serving
// account. Each item's commission is floored individually before summing.
func (transaction *Transaction) CommissionsByAccount() map[string]int64 {
	commissions := make(map[string]int64)
	for _, item := range transaction.Items {
		if item.ServedByID == nil {
			continue
		}
		commissions[*item.ServedByID] += CommissionForPrice(item.Price)
	}
	return commissions
}
