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
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

const accountCacheTTL = 5 * time.Minute

func accountCacheKey(id string) string {
	return fmt.Sprintf("account:%s", id)
}

// CreateAccount inserts a new account. The ID and creation timestamp are
// assigned here; salary always starts at zero.
func (d Datasource) CreateAccount(account model.Account) (model.Account, error) {
	metaDataJSON, err := json.Marshal(account.MetaData)
	if err != nil {
		return account, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	account.AccountID = model.GenerateUUIDWithSuffix("acc")
	account.CreatedAt = time.Now()
	account.Salary = 0

	_, err = d.Conn.Exec(`
		INSERT INTO accounts (account_id, name, email, salary, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.AccountID, account.Name, account.Email, account.Salary, account.CreatedAt, metaDataJSON)
	if err != nil {
		return account, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create account", err)
	}

	return account, nil
}

// GetAccountByID retrieves an account, serving repeat reads from the cache.
// The cache entry is dropped whenever settlement credits the account.
func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	if d.Cache != nil {
		cached := &model.Account{}
		if err := d.Cache.Get(ctx, accountCacheKey(id), cached); err == nil && cached.AccountID != "" {
			return cached, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT account_id, name, email, salary, created_at, meta_data
		FROM accounts
		WHERE account_id = $1
	`, id)

	account := &model.Account{}
	var metaDataJSON []byte
	err := row.Scan(&account.AccountID, &account.Name, &account.Email, &account.Salary, &account.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &account.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	if d.Cache != nil {
		_ = d.Cache.Set(ctx, accountCacheKey(id), account, accountCacheTTL)
	}

	return account, nil
}

func (d Datasource) GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT account_id, name, email, salary, created_at
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		account := model.Account{}
		err = rows.Scan(&account.AccountID, &account.Name, &account.Email, &account.Salary, &account.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}

	return accounts, nil
}
