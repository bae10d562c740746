package parlor

import (
	"context"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// CreateService adds a service to the catalog.
func (p *Parlor) CreateService(service model.Service) (model.Service, error) {
	if service.Title == "" {
		return service, apierror.NewAPIError(apierror.ErrBadRequest, "Service title is required", nil)
	}
	if service.Price < 0 {
		return service, apierror.NewAPIError(apierror.ErrBadRequest, "Service price cannot be negative", nil)
	}
	return p.datasource.CreateService(service)
}

// GetService retrieves a catalog service by ID.
func (p *Parlor) GetService(ctx context.Context, id string) (*model.Service, error) {
	return p.datasource.GetServiceByID(ctx, id)
}

// GetAllServices retrieves the full service catalog.
func (p *Parlor) GetAllServices(ctx context.Context) ([]model.Service, error) {
	return p.datasource.GetAllServices(ctx)
}
