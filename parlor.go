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
	"embed"

	"github.com/parlorworks/parlor/config"
	"github.com/parlorworks/parlor/database"
	claimlock "github.com/parlorworks/parlor/internal/lock"
)

// Parlor is the coordinator service. It owns the datasource, the in-memory
// claim lock table, the completion timer registry and the broadcast hub; the
// HTTP layer calls into it and never touches those directly.
type Parlor struct {
	queue      *Queue
	datasource database.IDataSource
	locks      *claimlock.Table
	timers     *TimerRegistry
	hub        *Hub
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewParlor initializes the coordinator with the provided datasource. It
// fetches the configuration and connects the webhook queue.
func NewParlor(db database.IDataSource) (*Parlor, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	return &Parlor{
		datasource: db,
		queue:      newQueue,
		locks:      claimlock.NewTable(),
		timers:     NewTimerRegistry(),
		hub:        NewHub(),
	}, nil
}

// Hub exposes the broadcast hub so the HTTP layer can attach stream
// subscribers.
func (p *Parlor) Hub() *Hub {
	return p.hub
}
