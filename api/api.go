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
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/parlorworks/parlor"
	"github.com/parlorworks/parlor/api/middleware"
	"github.com/parlorworks/parlor/config"
)

type Api struct {
	parlor *parlor.Parlor
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/transactions", a.RecordTransaction)
	router.GET("/transactions", a.GetAllTransactions)
	router.GET("/transactions/:id", a.GetTransaction)
	router.POST("/transactions/:id/cancel", a.CancelTransaction)

	router.POST("/availed-services/:id/check", a.CheckService)
	router.POST("/availed-services/:id/uncheck", a.UncheckService)
	router.POST("/availed-services/:id/serve", a.ServeService)
	router.POST("/availed-services/:id/unserve", a.UnserveService)

	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts/:id", a.GetAccount)
	router.GET("/accounts", a.GetAllAccounts)

	router.POST("/services", a.CreateService)
	router.GET("/services/:id", a.GetService)
	router.GET("/services", a.GetAllServices)

	router.GET("/events", a.StreamEvents)

	router.GET("/backup", a.BackupDB)
	router.GET("/backup-s3", a.BackupDBS3)

	return a.router
}

func NewAPI(p *parlor.Parlor) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("parlor-api"))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{parlor: p, router: r}
}
