package model

import "time"

// Account is a cashier or worker that claims and serves availed services.
// Salary only ever grows from this package's point of view; settlement applies
// commission as atomic increments.
type Account struct {
	ID        int64                  `json:"-"`
	AccountID string                 `json:"id"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email,omitempty"`
	Salary    int64                  `json:"salary"`
	CreatedAt time.Time              `json:"created_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}

type Service struct {
	ID        int64     `json:"-"`
	ServiceID string    `json:"id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
