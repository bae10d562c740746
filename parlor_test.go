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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/parlorworks/parlor/config"
	"github.com/parlorworks/parlor/database"
)

// newTestParlor wires a Parlor against a sqlmock-backed datasource and a
// miniredis instance, so handler behavior can be exercised end to end without
// external services.
func newTestParlor(t *testing.T) (*Parlor, sqlmock.Sqlmock) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p, err := NewParlor(database.Datasource{Conn: db})
	require.NoError(t, err)
	return p, mock
}

var itemRowColumns = []string{
	"availed_service_id", "transaction_id", "service_id", "title", "price", "quantity",
	"checked_by_id", "checked_by_name", "served_by_id", "served_by_name", "completed_at", "created_at",
}

func expectAccountRead(mock sqlmock.Sqlmock, id, name string) {
	mock.ExpectQuery("SELECT account_id, name, email, salary").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "name", "email", "salary", "created_at", "meta_data"}).
			AddRow(id, name, "", int64(0), time.Now(), []byte(`{}`)))
}
