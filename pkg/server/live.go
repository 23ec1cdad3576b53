package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/resume/pkg/snapshot"
)

// LiveMessage is sent for every event received on a live connection.
type LiveMessage struct {
	// ID is the snapshot the next event applies to.
	ID string `json:"id"`

	// HTML is the new document, empty on error.
	HTML string `json:"html,omitempty"`

	// Error describes a failed event. The connection stays usable and
	// ID is unchanged.
	Error string `json:"error,omitempty"`
}

// serveLive upgrades to a WebSocket and applies each received
// DispatchRequest to the connection's current snapshot.
func (s *Server) serveLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !snapshot.ValidID(id) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.metrics.liveOpened()
	defer s.metrics.liveClosed()
	conn.SetReadLimit(s.config.MaxBodyBytes)

	for {
		var req DispatchRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Error("live read error", "id", id, "error", err)
			}
			return
		}

		msg := LiveMessage{ID: id}
		res, err := s.Resume(r.Context(), id, req)
		if err != nil {
			msg.Error = http.StatusText(statusOf(err))
		} else {
			id = res.ID
			msg.ID = res.ID
			msg.HTML = string(res.HTML)
		}

		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("live write error", "id", id, "error", err)
			return
		}
	}
}
