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

package claimlock

import "sync"

// Table serializes concurrent claim attempts on availed services before they
// reach the store. An entry exists only for the duration of an in-flight claim;
// nothing here is persisted. Only the "check" command uses it: uncheck, serve
// and unserve are already serialized by the store's ownership conditions.
type Table struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewTable() *Table {
	return &Table{
		entries: make(map[string]string),
	}
}

// TryAcquire registers accountID as the in-flight claimant of itemID. It
// never blocks: when another claim for the same item is in flight it returns
// false together with the holding account, read under the same lock as the
// check so the holder is always known to a rejected caller.
func (t *Table) TryAcquire(itemID, accountID string) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if holder, held := t.entries[itemID]; held {
		return false, holder
	}
	t.entries[itemID] = accountID
	return true, ""
}

// Release drops the in-flight entry for itemID unconditionally. Callers must
// invoke it exactly once per successful TryAcquire, on every exit path, or the
// item stays unclaimable for the life of the process.
func (t *Table) Release(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, itemID)
}

// Holder returns the account holding the in-flight claim for itemID, if any.
func (t *Table) Holder(itemID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	accountID, held := t.entries[itemID]
	return accountID, held
}
