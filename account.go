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

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// CreateAccount registers a new cashier or worker account.
func (p *Parlor) CreateAccount(account model.Account) (model.Account, error) {
	if account.Name == "" {
		return account, apierror.NewAPIError(apierror.ErrBadRequest, "Account name is required", nil)
	}
	return p.datasource.CreateAccount(account)
}

// GetAccount retrieves an account by ID.
func (p *Parlor) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return p.datasource.GetAccountByID(ctx, id)
}

// GetAllAccounts retrieves accounts in a paginated manner.
func (p *Parlor) GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	return p.datasource.GetAllAccounts(ctx, limit, offset)
}
