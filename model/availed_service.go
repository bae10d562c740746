package model

import "time"

// AvailedService is one line item of a transaction. Price is snapshotted from
// the service catalog when the sale is recorded; later catalog price changes
// never touch it. CheckedByID and ServedByID are independent flags: an item
// may be served without ever having been checked.
type AvailedService struct {
	ID               int64      `json:"-"`
	AvailedServiceID string     `json:"id"`
	TransactionID    string     `json:"transaction_id"`
	ServiceID        string     `json:"service_id"`
	ServiceTitle     string     `json:"service_title"`
	Price            int64      `json:"price"`
	Quantity         int        `json:"quantity"`
	CheckedByID      *string    `json:"checked_by_id,omitempty"`
	CheckedByName    string     `json:"checked_by_name,omitempty"`
	ServedByID       *string    `json:"served_by_id,omitempty"`
	ServedByName     string     `json:"served_by_name,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (item *AvailedService) Checked() bool {
	return item.CheckedByID != nil && *item.CheckedByID != ""
}

func (item *AvailedService) Served() bool {
	return item.ServedByID != nil && *item.ServedByID != ""
}
