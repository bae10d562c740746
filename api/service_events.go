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
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/parlorworks/parlor/api/model"
	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// serviceEvent binds the shared command body and dispatches to the given
// coordinator operation. Check, uncheck, serve and unserve all share this
// request shape.
func (a Api) serviceEvent(c *gin.Context, op func(ctx context.Context, itemID, accountID string) (*model.AvailedService, error)) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var event model2.ServiceEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := event.ValidateServiceEvent(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := op(c.Request.Context(), id, event.AccountID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckService claims a line item for the requesting account. Returns 409 when
// another account already holds the claim.
func (a Api) CheckService(c *gin.Context) {
	a.serviceEvent(c, a.parlor.CheckService)
}

// UncheckService releases a claim. Only the claiming account may release it.
func (a Api) UncheckService(c *gin.Context) {
	a.serviceEvent(c, a.parlor.UncheckService)
}

// ServeService marks a line item as served and may start the settlement
// countdown when it completes the transaction.
func (a Api) ServeService(c *gin.Context) {
	a.serviceEvent(c, a.parlor.MarkServiceServed)
}

// UnserveService reverts a serve. Only the serving account may revert it.
func (a Api) UnserveService(c *gin.Context) {
	a.serviceEvent(c, a.parlor.UnmarkServiceServed)
}
