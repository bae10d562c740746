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
	"fmt"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// GetAvailedService retrieves a single line item with its catalog title and
// claimer/server names resolved.
func (d Datasource) GetAvailedService(ctx context.Context, id string) (*model.AvailedService, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+itemColumns+itemJoins+`
		WHERE i.availed_service_id = $1`, id)

	item, err := scanAvailedService(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Availed service with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve availed service", err)
	}
	return item, nil
}

// CheckAvailedService claims an item for an account. The update only lands on
// an unclaimed row; a zero row count means the item is gone or someone else
// holds it, and the follow-up read decides which.
func (d Datasource) CheckAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE availed_services SET checked_by_id = $2
		WHERE availed_service_id = $1 AND checked_by_id IS NULL
	`, itemID, accountID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check availed service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check availed service", err)
	}
	if rows == 0 {
		item, err := d.GetAvailedService(ctx, itemID)
		if err != nil {
			return nil, err
		}
		holder := item.CheckedByName
		if holder == "" && item.CheckedByID != nil {
			holder = *item.CheckedByID
		}
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Service is already being attended by %s", holder), nil)
	}

	return d.GetAvailedService(ctx, itemID)
}

// UncheckAvailedService releases a claim. Only the claiming account can
// release it; anyone else gets a precondition failure and the row is left
// untouched.
func (d Datasource) UncheckAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE availed_services SET checked_by_id = NULL
		WHERE availed_service_id = $1 AND checked_by_id = $2
	`, itemID, accountID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to uncheck availed service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to uncheck availed service", err)
	}
	if rows == 0 {
		if _, err := d.GetAvailedService(ctx, itemID); err != nil {
			return nil, err
		}
		return nil, apierror.NewAPIError(apierror.ErrPreconditionFailed,
			"Service can only be released by the account attending it", nil)
	}

	return d.GetAvailedService(ctx, itemID)
}

// ServeAvailedService marks an item served by an account. The write is a
// last-writer-wins overwrite: a later serve replaces an earlier server.
func (d Datasource) ServeAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE availed_services SET served_by_id = $2, completed_at = NOW()
		WHERE availed_service_id = $1
	`, itemID, accountID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to serve availed service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to serve availed service", err)
	}
	if rows == 0 {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Availed service with ID '%s' not found", itemID), nil)
	}

	return d.GetAvailedService(ctx, itemID)
}

// UnserveAvailedService reverts a serve. Only the account recorded as the
// server can revert it.
func (d Datasource) UnserveAvailedService(ctx context.Context, itemID, accountID string) (*model.AvailedService, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE availed_services SET served_by_id = NULL, completed_at = NULL
		WHERE availed_service_id = $1 AND served_by_id = $2
	`, itemID, accountID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unserve availed service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unserve availed service", err)
	}
	if rows == 0 {
		if _, err := d.GetAvailedService(ctx, itemID); err != nil {
			return nil, err
		}
		return nil, apierror.NewAPIError(apierror.ErrPreconditionFailed,
			"Service can only be reverted by the account that served it", nil)
	}

	return d.GetAvailedService(ctx, itemID)
}
