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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parlorworks/parlor/config"
	"github.com/parlorworks/parlor/internal/notification"
)

// evaluateCompletion re-reads the transaction after a serve state change.
// A complete transaction gets a fresh settlement timer (restarting the
// debounce window); an incomplete one has any pending timer cancelled.
func (p *Parlor) evaluateCompletion(ctx context.Context, transactionID string) {
	txn, err := p.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		notification.NotifyError(err)
		p.timers.Cancel(transactionID)
		return
	}

	if !txn.Complete() {
		if p.timers.Cancel(transactionID) {
			logrus.WithField("transaction_id", transactionID).Info("settlement timer cancelled")
		}
		return
	}

	delay := config.DefaultCompletionDelaySeconds * time.Second
	if cnf, err := config.Fetch(); err == nil {
		delay = cnf.Settlement.CompletionDelay()
	}

	p.timers.Start(transactionID, delay, func() {
		p.settle(transactionID)
	})
	logrus.WithField("transaction_id", transactionID).Info("settlement timer started")
}

// settle runs when a settlement timer fires. The store revalidates the
// transaction under row locks, so a transaction that regressed since the
// timer started settles as a silent no-op.
func (p *Parlor) settle(transactionID string) {
	ctx := context.Background()

	settled, err := p.datasource.SettleTransaction(ctx, transactionID, time.Now())
	if err != nil {
		notification.NotifyError(err)
		return
	}
	if settled == nil {
		logrus.WithField("transaction_id", transactionID).Info("settlement aborted, transaction no longer eligible")
		return
	}

	logrus.WithField("transaction_id", transactionID).Info("transaction settled")
	p.hub.Broadcast(Event{Event: EventTransactionCompleted, Data: settled})

	if err := p.SendWebhook(NewWebhook{
		Event:   "transaction.completed",
		Payload: settled,
	}); err != nil {
		notification.NotifyError(err)
	}
}
