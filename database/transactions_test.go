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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

func newTestDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Datasource{Conn: db}, mock
}

var itemRowColumns = []string{
	"availed_service_id", "transaction_id", "service_id", "title", "price", "quantity",
	"checked_by_id", "checked_by_name", "served_by_id", "served_by_name", "completed_at", "created_at",
}

func TestRecordTransactionInsertsItems(t *testing.T) {
	ds, mock := newTestDatasource(t)

	now := time.Now()
	txn := &model.Transaction{
		TransactionID: "txn_1",
		CustomerID:    "cust_1",
		Status:        model.StatusPending,
		CreatedAt:     now,
		Items: []model.AvailedService{
			{AvailedServiceID: "avs_1", ServiceID: "svc_1", Price: 499, Quantity: 1, CreatedAt: now},
			{AvailedServiceID: "avs_2", ServiceID: "svc_2", Price: 501, Quantity: 1, CreatedAt: now},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs("txn_1", "cust_1", model.StatusPending, now, []byte("null")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availed_services").
		WithArgs("avs_1", "txn_1", "svc_1", int64(499), 1, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availed_services").
		WithArgs("avs_2", "txn_1", "svc_2", int64(501), 1, now).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	got, err := ds.RecordTransaction(context.Background(), txn)
	require.NoError(t, err)
	assert.Equal(t, "txn_1", got.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTransactionNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery("SELECT transaction_id, customer_id, status").
		WithArgs("txn_missing").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}))

	_, err := ds.GetTransaction(context.Background(), "txn_missing")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestUpdateTransactionStatusNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs("txn_missing", model.StatusCancelled, model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM transactions").
		WithArgs("txn_missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := ds.UpdateTransactionStatus(context.Background(), "txn_missing", model.StatusCancelled)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

// The status write lands only on a row still PENDING; a transaction settled
// in the meantime is left DONE and the caller gets a precondition failure.
func TestUpdateTransactionStatusLeavesTerminalStatus(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs("txn_1", model.StatusCancelled, model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM transactions").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.StatusDone))

	err := ds.UpdateTransactionStatus(context.Background(), "txn_1", model.StatusCancelled)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrPreconditionFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Commission on 499 + 501 must credit 49 + 50 = 99, each item floored on its
// own, never floor(100.0) = 100.
func TestSettleTransactionCreditsFlooredCommissions(t *testing.T) {
	ds, mock := newTestDatasource(t)

	completedAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM transactions").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.StatusPending))
	mock.ExpectQuery("SELECT price, served_by_id FROM availed_services").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"price", "served_by_id"}).
			AddRow(int64(499), "acc_x").
			AddRow(int64(501), "acc_x").
			AddRow(int64(1000), "acc_y"))
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs("txn_1", model.StatusDone, completedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET salary").
		WithArgs("acc_x", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET salary").
		WithArgs("acc_y", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT transaction_id, customer_id, status").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "customer_id", "status", "created_at", "completed_at", "meta_data"}).
			AddRow("txn_1", "cust_1", model.StatusDone, time.Now(), completedAt, []byte(`{}`)))
	mock.ExpectQuery("SELECT(.|\n)+FROM availed_services").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("avs_1", "txn_1", "svc_1", "Haircut", int64(499), 1, nil, "", "acc_x", "Xenia", completedAt, time.Now()))

	settled, err := ds.SettleTransaction(context.Background(), "txn_1", completedAt)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Equal(t, model.StatusDone, settled.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A transaction re-read under lock with an unserved item must abort silently:
// no status change, no salary writes, nil result.
func TestSettleTransactionAbortsWhenItemNoLongerServed(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM transactions").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.StatusPending))
	mock.ExpectQuery("SELECT price, served_by_id FROM availed_services").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"price", "served_by_id"}).
			AddRow(int64(499), "acc_x").
			AddRow(int64(501), nil))
	mock.ExpectRollback()

	settled, err := ds.SettleTransaction(context.Background(), "txn_1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleTransactionAbortsWhenNotPending(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM transactions").
		WithArgs("txn_1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.StatusDone))
	mock.ExpectRollback()

	settled, err := ds.SettleTransaction(context.Background(), "txn_1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleTransactionNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM transactions").
		WithArgs("txn_missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := ds.SettleTransaction(context.Background(), "txn_missing", time.Now())
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}
