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

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryAcquireAndRelease(t *testing.T) {
	table := NewTable()

	acquired, _ := table.TryAcquire("avs_1", "acc_a")
	assert.True(t, acquired)

	// a rejected caller learns the holder atomically with the rejection
	acquired, holder := table.TryAcquire("avs_1", "acc_b")
	assert.False(t, acquired)
	assert.Equal(t, "acc_a", holder)

	holder, held := table.Holder("avs_1")
	assert.True(t, held)
	assert.Equal(t, "acc_a", holder)

	// a different item is unaffected
	acquired, _ = table.TryAcquire("avs_2", "acc_b")
	assert.True(t, acquired)

	table.Release("avs_1")
	_, held = table.Holder("avs_1")
	assert.False(t, held)
	acquired, _ = table.TryAcquire("avs_1", "acc_b")
	assert.True(t, acquired)
}

func TestReleaseIsIdempotent(t *testing.T) {
	table := NewTable()
	table.Release("avs_missing")

	acquired, _ := table.TryAcquire("avs_1", "acc_a")
	assert.True(t, acquired)
	table.Release("avs_1")
	table.Release("avs_1")
	acquired, _ = table.TryAcquire("avs_1", "acc_a")
	assert.True(t, acquired)
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	table := NewTable()

	const racers = 50
	var wg sync.WaitGroup
	wins := make(chan string, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accountID := fmt.Sprintf("acc_%d", i)
			if acquired, _ := table.TryAcquire("avs_contested", accountID); acquired {
				wins <- accountID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	assert.Len(t, winners, 1)

	holder, held := table.Holder("avs_contested")
	assert.True(t, held)
	assert.Equal(t, winners[0], holder)
}
