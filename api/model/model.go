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
package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/parlorworks/parlor/model"
)

// RecordTransaction is the request body for taking a new sale.
type RecordTransaction struct {
	CustomerID string                 `json:"customer_id"`
	Items      []RecordAvailedService `json:"availed_services"`
	MetaData   map[string]interface{} `json:"meta_data"`
}

// RecordAvailedService is one requested line item. Price is not accepted from
// the caller; the catalog price is snapshotted at intake.
type RecordAvailedService struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

// ServiceEvent is the request body shared by the check, uncheck, serve and
// unserve commands.
type ServiceEvent struct {
	AccountID string `json:"account_id"`
}

// CreateAccount is the request body for registering an account.
type CreateAccount struct {
	Name     string                 `json:"name"`
	Email    string                 `json:"email"`
	MetaData map[string]interface{} `json:"meta_data"`
}

// CreateService is the request body for adding a catalog service.
type CreateService struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

func (t *RecordTransaction) ValidateRecordTransaction() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Items, validation.Required, validation.Length(1, 0)),
	)
}

func (i RecordAvailedService) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ServiceID, validation.Required),
		validation.Field(&i.Quantity, validation.Min(0)),
	)
}

func (e *ServiceEvent) ValidateServiceEvent() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.AccountID, validation.Required),
	)
}

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Email, validation.When(a.Email != "", is.Email)),
	)
}

func (s *CreateService) ValidateCreateService() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Price, validation.Min(0)),
	)
}

// ToTransaction converts the request into the domain transaction handed to
// the coordinator.
func (t *RecordTransaction) ToTransaction() *model.Transaction {
	items := make([]model.AvailedService, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, model.AvailedService{
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
		})
	}
	return &model.Transaction{
		CustomerID: t.CustomerID,
		Items:      items,
		MetaData:   t.MetaData,
	}
}

func (a *CreateAccount) ToAccount() model.Account {
	return model.Account{
		Name:     a.Name,
		Email:    a.Email,
		MetaData: a.MetaData,
	}
}

func (s *CreateService) ToService() model.Service {
	return model.Service{
		Title: s.Title,
		Price: s.Price,
	}
}
