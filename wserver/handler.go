// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package wserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
)

// Request is sent by clients after connecting. Op is subscribe (default) or
// unsubscribe and Event is new_receipt or new_log. A non empty Address
// restricts new_log to logs emitted by that contract and new_receipt to
// receipts from, to or deploying that account.
type Request struct {
	Op      string `json:"op"`
	Event   string `json:"event"`
	Address string `json:"address,omitempty"`
}

// websocketHandler upgrades requests and serves subscription requests.
type websocketHandler struct {
	upgrader *websocket.Upgrader
	registry *registry
}

func (wh *websocketHandler) Handle(ctx *gin.Context) {
	wh.ServeHTTP(ctx.Writer, ctx.Request)
}

// ServeHTTP keeps the connection until the client leaves or the server
// stops.
func (wh *websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := wh.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade")
		return
	}
	conn := NewConn(ws)
	wh.registry.track(conn)
	defer wh.registry.drop(conn)

	conn.Listen(func(data []byte) {
		reply := wh.serve(conn, data)
		if err := conn.Send(reply); err != nil {
			logrus.WithError(err).WithField("conn", conn.ID()).Debug("reply")
		}
	})
}

func (wh *websocketHandler) serve(conn *Conn, data []byte) Envelope {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorEnvelope("malformed request: %v", err)
	}
	if !isKnownEvent(req.Event) {
		return errorEnvelope("unknown event %q", req.Event)
	}
	switch req.Op {
	case "", opSubscribe:
		var filter *common.Address
		if req.Address != "" {
			if !common.IsHexAddress(req.Address) {
				return errorEnvelope("invalid address %q", req.Address)
			}
			addr := common.HexToAddress(req.Address)
			filter = &addr
		}
		wh.registry.subscribe(req.Event, conn, filter)
		return Envelope{Type: messageTypeSubscribed, Data: req.Event}
	case opUnsubscribe:
		if !wh.registry.unsubscribe(req.Event, conn) {
			return errorEnvelope("not subscribed to %q", req.Event)
		}
		return Envelope{Type: messageTypeUnsubscribed, Data: req.Event}
	default:
		return errorEnvelope("unknown op %q", req.Op)
	}
}

func errorEnvelope(format string, args ...interface{}) Envelope {
	return Envelope{Type: messageTypeError, Data: fmt.Sprintf(format, args...)}
}
