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
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// CheckService claims a line item for an account. The in-memory lock table
// serializes simultaneous claims on the same item so exactly one caller
// reaches the store's conditional update; everyone else gets a conflict
// naming the current holder.
func (p *Parlor) CheckService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	ctx, span := otel.Tracer("service.events").Start(ctx, "Checking availed service")
	defer span.End()

	account, err := p.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	acquired, holderID := p.locks.TryAcquire(itemID, account.AccountID)
	if !acquired {
		holderName := holderID
		if holder, err := p.datasource.GetAccountByID(ctx, holderID); err == nil {
			holderName = holder.Name
		}
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Service is already being attended by %s", holderName), nil)
	}
	defer p.locks.Release(itemID)

	item, err := p.datasource.CheckAvailedService(ctx, itemID, account.AccountID)
	if err != nil {
		return nil, err
	}

	p.hub.Broadcast(Event{Event: EventAvailedServiceUpdated, Data: item})
	return item, nil
}

// UncheckService releases a claim. The store's ownership condition rejects
// anyone but the claiming account, leaving the claim untouched.
func (p *Parlor) UncheckService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	ctx, span := otel.Tracer("service.events").Start(ctx, "Unchecking availed service")
	defer span.End()

	item, err := p.datasource.UncheckAvailedService(ctx, itemID, accountID)
	if err != nil {
		return nil, err
	}

	p.hub.Broadcast(Event{Event: EventAvailedServiceUpdated, Data: item})
	return item, nil
}

// MarkServiceServed records an item as served and re-evaluates the owning
// transaction: once every item is served a settlement timer starts.
func (p *Parlor) MarkServiceServed(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	ctx, span := otel.Tracer("service.events").Start(ctx, "Marking availed service served")
	defer span.End()

	if _, err := p.datasource.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	item, err := p.datasource.ServeAvailedService(ctx, itemID, accountID)
	if err != nil {
		return nil, err
	}

	p.hub.Broadcast(Event{Event: EventAvailedServiceUpdated, Data: item})
	p.evaluateCompletion(ctx, item.TransactionID)
	return item, nil
}

// UnmarkServiceServed reverts a serve recorded by the calling account. An
// item that just became unserved rules out completion, so the owning
// transaction's settlement timer is cancelled outright with no re-read.
func (p *Parlor) UnmarkServiceServed(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	ctx, span := otel.Tracer("service.events").Start(ctx, "Unmarking availed service served")
	defer span.End()

	item, err := p.datasource.UnserveAvailedService(ctx, itemID, accountID)
	if err != nil {
		return nil, err
	}

	p.hub.Broadcast(Event{Event: EventAvailedServiceUpdated, Data: item})
	p.timers.Cancel(item.TransactionID)
	return item, nil
}
