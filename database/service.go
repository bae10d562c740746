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
	"time"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// CreateService adds a service to the catalog. The price recorded here is the
// one snapshotted onto line items when a sale is taken.
func (d Datasource) CreateService(service model.Service) (model.Service, error) {
	service.ServiceID = model.GenerateUUIDWithSuffix("svc")
	service.CreatedAt = time.Now()

	_, err := d.Conn.Exec(`
		INSERT INTO services (service_id, title, price, created_at)
		VALUES ($1, $2, $3, $4)
	`, service.ServiceID, service.Title, service.Price, service.CreatedAt)
	if err != nil {
		return service, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create service", err)
	}

	return service, nil
}

func (d Datasource) GetServiceByID(ctx context.Context, id string) (*model.Service, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT service_id, title, price, created_at
		FROM services
		WHERE service_id = $1
	`, id)

	service := &model.Service{}
	err := row.Scan(&service.ServiceID, &service.Title, &service.Price, &service.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Service with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve service", err)
	}

	return service, nil
}

func (d Datasource) GetAllServices(ctx context.Context) ([]model.Service, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT service_id, title, price, created_at
		FROM services
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve services", err)
	}
	defer rows.Close()

	services := []model.Service{}
	for rows.Next() {
		service := model.Service{}
		err = rows.Scan(&service.ServiceID, &service.Title, &service.Price, &service.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan service", err)
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve services", err)
	}

	return services, nil
}
