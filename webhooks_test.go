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
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorworks/parlor/config"
)

func TestProcessWebhookDeliversPayload(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	conf := &config.Configuration{}
	conf.Notification.Webhook.Url = "https://hooks.parlor.test/settlements"
	config.MockConfig(conf)

	var delivered NewWebhook
	httpmock.RegisterResponder("POST", "https://hooks.parlor.test/settlements",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&delivered); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"ok":true}`), nil
		})

	payload, err := json.Marshal(NewWebhook{Event: "transaction.completed", Payload: map[string]interface{}{"id": "txn_1"}})
	require.NoError(t, err)

	task := asynq.NewTask("new:webhook", payload)
	err = ProcessWebhook(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "transaction.completed", delivered.Event)
}

func TestProcessWebhookRetriesFailedDelivery(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	conf := &config.Configuration{}
	conf.Notification.Webhook.Url = "https://hooks.parlor.test/settlements"
	config.MockConfig(conf)

	attempts := 0
	httpmock.RegisterResponder("POST", "https://hooks.parlor.test/settlements",
		func(req *http.Request) (*http.Response, error) {
			attempts++
			if attempts < 3 {
				return httpmock.NewStringResponse(http.StatusBadGateway, ""), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"ok":true}`), nil
		})

	payload, err := json.Marshal(NewWebhook{Event: "transaction.completed"})
	require.NoError(t, err)

	err = ProcessWebhook(context.Background(), asynq.NewTask("new:webhook", payload))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestProcessWebhookNoopWithoutURL(t *testing.T) {
	config.MockConfig(&config.Configuration{})

	err := ProcessWebhook(context.Background(), asynq.NewTask("new:webhook", []byte(`{}`)))
	assert.NoError(t, err)
}

func TestSendWebhookNoopWithoutURL(t *testing.T) {
	p, _ := newTestParlor(t)

	err := p.SendWebhook(NewWebhook{Event: "transaction.completed"})
	assert.NoError(t, err)
}
