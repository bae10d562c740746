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
	"sync"
	"time"
)

// TimerRegistry tracks the pending settlement timer of each transaction.
// At most one timer exists per transaction: starting a new one replaces the
// old one, and a fired timer cleans up only its own entry so it never evicts
// a replacement registered while the callback was pending.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{
		timers: make(map[string]*time.Timer),
	}
}

// Start schedules fn to run after delay, replacing any timer already pending
// for the same id.
func (r *TimerRegistry) Start(id string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[id]; ok {
		existing.Stop()
	}
	var tm *time.Timer
	tm = time.AfterFunc(delay, func() {
		r.mu.Lock()
		// A fired timer removes only its own handle; a replacement started
		// in the meantime stays registered and cancellable.
		if r.timers[id] == tm {
			delete(r.timers, id)
		}
		r.mu.Unlock()
		fn()
	})
	r.timers[id] = tm
}

// Cancel stops the pending timer for id. Cancelling an id with no timer is a
// no-op; the return value reports whether a timer was actually stopped.
func (r *TimerRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer, ok := r.timers[id]
	if !ok {
		return false
	}
	delete(r.timers, id)
	return timer.Stop()
}

// Active reports whether a settlement timer is pending for id.
func (r *TimerRegistry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[id]
	return ok
}
