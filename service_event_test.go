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
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorworks/parlor/internal/apierror"
)

func TestCheckServiceBroadcastsUpdate(t *testing.T) {
	p, mock := newTestParlor(t)

	events, unsubscribe := p.Hub().Subscribe()
	defer unsubscribe()

	expectAccountRead(mock, "acc_x", "Xenia")
	mock.ExpectExec("UPDATE availed_services SET checked_by_id").
		WithArgs("avs_1", "acc_x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("avs_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, "acc_x", "Xenia", nil, "", nil, time.Now()))

	item, err := p.CheckService(context.Background(), "avs_1", "acc_x")
	require.NoError(t, err)
	assert.Equal(t, "Xenia", item.CheckedByName)

	select {
	case event := <-events:
		assert.Equal(t, EventAvailedServiceUpdated, event.Event)
	default:
		t.Fatal("expected a broadcast event")
	}
}

// While one claim is in flight, a second claim on the same item must fail
// with a conflict naming the in-flight claimant.
func TestCheckServiceRejectsInFlightClaim(t *testing.T) {
	p, mock := newTestParlor(t)

	acquired, _ := p.locks.TryAcquire("avs_1", "acc_x")
	require.True(t, acquired)
	defer p.locks.Release("avs_1")

	expectAccountRead(mock, "acc_y", "Yara")
	expectAccountRead(mock, "acc_x", "Xenia")

	_, err := p.CheckService(context.Background(), "avs_1", "acc_y")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrConflict))
	assert.Contains(t, err.Error(), "Xenia")
}

// When the in-flight claimant cannot be resolved to a display name, the
// conflict message falls back to the account ID rather than naming nobody.
func TestCheckServiceConflictFallsBackToHolderID(t *testing.T) {
	p, mock := newTestParlor(t)

	acquired, _ := p.locks.TryAcquire("avs_1", "acc_ghost")
	require.True(t, acquired)
	defer p.locks.Release("avs_1")

	expectAccountRead(mock, "acc_y", "Yara")
	mock.ExpectQuery("SELECT account_id, name, email, salary").
		WithArgs("acc_ghost").
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}))

	_, err := p.CheckService(context.Background(), "avs_1", "acc_y")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrConflict))
	assert.Contains(t, err.Error(), "acc_ghost")
}

// A claim that loses at the store (item already checked) surfaces the store's
// conflict and releases the in-flight entry for the next caller.
func TestCheckServiceStoreConflictReleasesLock(t *testing.T) {
	p, mock := newTestParlor(t)

	expectAccountRead(mock, "acc_y", "Yara")
	mock.ExpectExec("UPDATE availed_services SET checked_by_id").
		WithArgs("avs_1", "acc_y").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("avs_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, "acc_x", "Xenia", nil, "", nil, time.Now()))

	_, err := p.CheckService(context.Background(), "avs_1", "acc_y")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrConflict))

	_, held := p.locks.Holder("avs_1")
	assert.False(t, held)
}

func TestUncheckServiceByOtherAccountLeavesClaim(t *testing.T) {
	p, mock := newTestParlor(t)

	mock.ExpectExec("UPDATE availed_services SET checked_by_id").
		WithArgs("avs_1", "acc_y").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("avs_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, "acc_x", "Xenia", nil, "", nil, time.Now()))

	_, err := p.UncheckService(context.Background(), "avs_1", "acc_y")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrPreconditionFailed))
}

func TestMarkServiceServedStartsSettlementTimer(t *testing.T) {
	p, mock := newTestParlor(t)

	now := time.Now()
	expectAccountRead(mock, "acc_x", "Xenia")
	mock.ExpectExec("UPDATE availed_services SET served_by_id").
		WithArgs("avs_1", "acc_x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("avs_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, nil, "", "acc_x", "Xenia", now, now))

	// completion evaluation re-reads the transaction; all items served
	mock.ExpectQuery("SELECT transaction_id, customer_id, status").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "customer_id", "status", "created_at", "completed_at", "meta_data"}).
			AddRow("txn_1", "cust_1", "PENDING", now, nil, []byte(`{}`)))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, nil, "", "acc_x", "Xenia", now, now))

	_, err := p.MarkServiceServed(context.Background(), "avs_1", "acc_x")
	require.NoError(t, err)
	assert.True(t, p.timers.Active("txn_1"))

	p.timers.Cancel("txn_1")
}

func TestUnmarkServiceServedCancelsSettlementTimer(t *testing.T) {
	p, mock := newTestParlor(t)

	p.timers.Start("txn_1", time.Hour, func() {})
	now := time.Now()

	mock.ExpectExec("UPDATE availed_services SET served_by_id").
		WithArgs("avs_1", "acc_x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("avs_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, nil, "", nil, "", nil, now))

	_, err := p.UnmarkServiceServed(context.Background(), "avs_1", "acc_x")
	require.NoError(t, err)
	assert.False(t, p.timers.Active("txn_1"))
	// the cancel is direct; no transaction re-read happens
	assert.NoError(t, mock.ExpectationsWereMet())
}
