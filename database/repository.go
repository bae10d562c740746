/*
Copyright 2024 Parlor Works Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"time"

	"github.com/parlorworks/parlor/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	transaction    // Interface for transaction-related operations
	availedService // Interface for transaction line-item operations
	account        // Interface for account-related operations
	service        // Interface for service catalog operations
}

// transaction defines methods for handling transactions.
type transaction interface {
	RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)        // Records a new transaction with its items
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)                        // Retrieves a transaction with its items by ID
	GetAllTransactions(ctx context.Context, limit, offset int) ([]model.Transaction, error)           // Retrieves transactions in a paginated manner
	UpdateTransactionStatus(ctx context.Context, id string, status string) error                      // Updates the status of a transaction
	SettleTransaction(ctx context.Context, id string, completedAt time.Time) (*model.Transaction, error) // Atomically marks DONE and credits commissions
}

// availedService defines methods for handling transaction line items.
type availedService interface {
	GetAvailedService(ctx context.Context, id string) (*model.AvailedService, error)                     // Retrieves a line item with resolved names
	CheckAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error)    // Claims an unclaimed item
	UncheckAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error)  // Releases a claim held by the caller
	ServeAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error)    // Marks an item served
	UnserveAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error)  // Reverts a serve recorded by the caller
}

// account defines methods for handling accounts.
type account interface {
	CreateAccount(account model.Account) (model.Account, error)               // Creates a new account
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)    // Retrieves an account by ID
	GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) // Retrieves all accounts
}

// service defines methods for handling the service catalog.
type service interface {
	CreateService(service model.Service) (model.Service, error)            // Creates a new catalog service
	GetServiceByID(ctx context.Context, id string) (*model.Service, error) // Retrieves a catalog service by ID
	GetAllServices(ctx context.Context) ([]model.Service, error)           // Retrieves the full catalog
}
