/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/launix-de/zeppelin/internal/zlog"
)

// event is a single namespace mutation notification pushed to every
// subscriber of that namespace's feed.
type event struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
	Count     int    `json:"count,omitempty"`
}

// eventHub fans out namespace events to any number of websocket
// subscribers, per namespace. A slow or disconnected subscriber only
// drops its own events; it never blocks a publisher.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan event]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subscribers: make(map[string]map[chan event]struct{})}
}

func (h *eventHub) subscribe(namespace string) chan event {
	ch := make(chan event, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[namespace] == nil {
		h.subscribers[namespace] = make(map[chan event]struct{})
	}
	h.subscribers[namespace][ch] = struct{}{}
	return ch
}

func (h *eventHub) unsubscribe(namespace string, ch chan event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[namespace], ch)
	close(ch)
}

func (h *eventHub) publish(namespace string, e event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[namespace] {
		select {
		case ch <- e:
		default:
			// subscriber isn't draining fast enough; drop rather than block.
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// namespaceEvents upgrades to a websocket and streams every subsequent
// upsert/delete event for the namespace until the client disconnects.
// Compaction passes publish no event.
func (s *Server) namespaceEvents(c *gin.Context) {
	ns := c.Param("ns")
	if _, err := s.registry.Get(ns); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := zlog.WithNamespace("api_events", ns)
	ch := s.events.subscribe(ns)
	defer s.events.unsubscribe(ns, ch)

	for e := range ch {
		if err := conn.WriteJSON(e); err != nil {
			log.Debug().Err(err).Msg("event stream subscriber disconnected")
			return
		}
	}
}
