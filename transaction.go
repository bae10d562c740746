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

package parlor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// RecordTransaction takes a new sale: it snapshots the current catalog price
// onto every line item and stores the transaction as PENDING. Later catalog
// price changes never affect items recorded here.
func (p *Parlor) RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	ctx, span := otel.Tracer("transaction.service").Start(ctx, "Recording transaction")
	defer span.End()

	if len(txn.Items) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Transaction requires at least one availed service", nil)
	}

	txn.TransactionID = model.GenerateUUIDWithSuffix("txn")
	txn.Status = model.StatusPending
	txn.CreatedAt = time.Now()

	for idx := range txn.Items {
		item := &txn.Items[idx]
		service, err := p.datasource.GetServiceByID(ctx, item.ServiceID)
		if err != nil {
			return nil, err
		}
		item.AvailedServiceID = model.GenerateUUIDWithSuffix("avs")
		item.Price = service.Price
		item.ServiceTitle = service.Title
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.CreatedAt = txn.CreatedAt
	}

	return p.datasource.RecordTransaction(ctx, txn)
}

// GetTransaction retrieves a transaction with its items.
func (p *Parlor) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return p.datasource.GetTransaction(ctx, id)
}

// GetAllTransactions retrieves transactions in a paginated manner.
func (p *Parlor) GetAllTransactions(ctx context.Context, limit, offset int) ([]model.Transaction, error) {
	return p.datasource.GetAllTransactions(ctx, limit, offset)
}

// CancelTransaction voids a pending transaction. Any pending settlement timer
// is dropped; a transaction already settled cannot be cancelled.
func (p *Parlor) CancelTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	ctx, span := otel.Tracer("transaction.service").Start(ctx, "Cancelling transaction")
	defer span.End()

	txn, err := p.datasource.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.Status != model.StatusPending {
		return nil, apierror.NewAPIError(apierror.ErrPreconditionFailed, "Only pending transactions can be cancelled", nil)
	}

	if err := p.datasource.UpdateTransactionStatus(ctx, id, model.StatusCancelled); err != nil {
		return nil, err
	}
	p.timers.Cancel(id)

	return p.datasource.GetTransaction(ctx, id)
}
