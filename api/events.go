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
package api

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamEvents attaches the caller to the broadcast hub as a server-sent
// event stream. Every claim, serve and settlement update in the salon is
// pushed to every connected client; the stream ends when the client goes
// away or the hub closes the subscription.
func (a Api) StreamEvents(c *gin.Context) {
	events, unsubscribe := a.parlor.Hub().Subscribe()
	defer unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Event, event.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
