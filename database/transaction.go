package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/parlorworks/parlor/internal/apierror"
	"github.com/parlorworks/parlor/model"
)

// itemColumns is the select list used everywhere a line item is read back
// with its catalog title and claimer/server names resolved.
const itemColumns = `
	i.availed_service_id, i.transaction_id, i.service_id, COALESCE(s.title, ''), i.price, i.quantity,
	i.checked_by_id, COALESCE(ca.name, ''), i.served_by_id, COALESCE(sa.name, ''), i.completed_at, i.created_at`

const itemJoins = `
	FROM availed_services i
	LEFT JOIN services s ON s.service_id = i.service_id
	LEFT JOIN accounts ca ON ca.account_id = i.checked_by_id
	LEFT JOIN accounts sa ON sa.account_id = i.served_by_id`

func scanAvailedService(row interface {
	Scan(dest ...interface{}) error
}) (*model.AvailedService, error) {
	item := &model.AvailedService{}
	err := row.Scan(&item.AvailedServiceID, &item.TransactionID, &item.ServiceID, &item.ServiceTitle,
		&item.Price, &item.Quantity, &item.CheckedByID, &item.CheckedByName,
		&item.ServedByID, &item.ServedByName, &item.CompletedAt, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RecordTransaction inserts a new transaction together with its line items in
// a single database transaction. Item prices must already be snapshotted by
// the caller; the store never re-reads the catalog for them.
func (d Datasource) RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	ctx, span := otel.Tracer("transaction.database").Start(ctx, "Saving transaction to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(txn.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions(transaction_id, customer_id, status, created_at, meta_data) VALUES ($1,$2,$3,$4,$5)`,
		txn.TransactionID, txn.CustomerID, txn.Status, txn.CreatedAt, metaDataJSON,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transaction", err)
	}

	for idx := range txn.Items {
		item := &txn.Items[idx]
		item.TransactionID = txn.TransactionID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO availed_services(availed_service_id, transaction_id, service_id, price, quantity, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			item.AvailedServiceID, item.TransactionID, item.ServiceID, item.Price, item.Quantity, item.CreatedAt,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record availed service", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return txn, nil
}

// GetTransaction retrieves a transaction and all of its line items.
func (d Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT transaction_id, customer_id, status, created_at, completed_at, meta_data
		FROM transactions
		WHERE transaction_id = $1
	`, id)

	txn := &model.Transaction{}
	var metaDataJSON []byte
	err := row.Scan(&txn.TransactionID, &txn.CustomerID, &txn.Status, &txn.CreatedAt, &txn.CompletedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &txn.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	rows, err := d.Conn.QueryContext(ctx, `SELECT `+itemColumns+itemJoins+`
		WHERE i.transaction_id = $1
		ORDER BY i.id`, id)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve availed services", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanAvailedService(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan availed service", err)
		}
		txn.Items = append(txn.Items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve availed services", err)
	}

	return txn, nil
}

// GetAllTransactions retrieves transactions without their items, newest first.
func (d Datasource) GetAllTransactions(ctx context.Context, limit, offset int) ([]model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT transaction_id, customer_id, status, created_at, completed_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn := model.Transaction{}
		err = rows.Scan(&txn.TransactionID, &txn.CustomerID, &txn.Status, &txn.CreatedAt, &txn.CompletedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}

	return transactions, nil
}

// UpdateTransactionStatus moves a transaction out of PENDING. The write is
// conditioned on the status still being PENDING, so a settlement committing
// concurrently is never overwritten; the follow-up read decides whether a
// zero row count means a missing transaction or one already terminal.
func (d Datasource) UpdateTransactionStatus(ctx context.Context, id string, status string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE transactions SET status = $2 WHERE transaction_id = $1 AND status = $3
	`, id, status, model.StatusPending)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update transaction status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update transaction status", err)
	}
	if rows == 0 {
		var current string
		err := d.Conn.QueryRowContext(ctx, `
			SELECT status FROM transactions WHERE transaction_id = $1
		`, id).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
			}
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update transaction status", err)
		}
		return apierror.NewAPIError(apierror.ErrPreconditionFailed,
			fmt.Sprintf("Transaction is already %s", current), nil)
	}
	return nil
}

// SettleTransaction marks a transaction DONE and credits each serving
// account's salary with its commission, all inside one database transaction.
// The pending status and the served state of every item are revalidated under
// row locks; if either no longer holds the settlement aborts silently and
// (nil, nil) is returned. Nothing is ever partially applied.
func (d Datasource) SettleTransaction(ctx context.Context, id string, completedAt time.Time) (*model.Transaction, error) {
	ctx, span := otel.Tracer("transaction.database").Start(ctx, "Settling transaction")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin settlement", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM transactions WHERE transaction_id = $1 FOR UPDATE
	`, id).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock transaction for settlement", err)
	}
	if status != model.StatusPending {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT price, served_by_id FROM availed_services WHERE transaction_id = $1 FOR UPDATE
	`, id)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock availed services for settlement", err)
	}

	items := []model.AvailedService{}
	for rows.Next() {
		item := model.AvailedService{}
		if err := rows.Scan(&item.Price, &item.ServedByID); err != nil {
			rows.Close()
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan availed service", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read availed services", err)
	}

	snapshot := model.Transaction{Status: model.StatusPending, Items: items}
	if !snapshot.Complete() {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions SET status = $2, completed_at = $3 WHERE transaction_id = $1
	`, id, model.StatusDone, completedAt)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark transaction done", err)
	}

	commissions := snapshot.CommissionsByAccount()
	accountIDs := make([]string, 0, len(commissions))
	for accountID := range commissions {
		accountIDs = append(accountIDs, accountID)
	}
	sort.Strings(accountIDs)

	for _, accountID := range accountIDs {
		_, err = tx.ExecContext(ctx, `
			UPDATE accounts SET salary = salary + $2 WHERE account_id = $1
		`, accountID, commissions[accountID])
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to credit commission", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit settlement", err)
	}

	if d.Cache != nil {
		for _, accountID := range accountIDs {
			_ = d.Cache.Delete(ctx, accountCacheKey(accountID))
		}
	}

	return d.GetTransaction(ctx, id)
}
