// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/stakettt/internal/lifecycle"
	"github.com/jason-s-yu/stakettt/internal/middleware"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/sirupsen/logrus"
)

const roomSubprotocol = "room"

// roomUpdate is the only message the server pushes on a room socket.
type roomUpdate struct {
	Type         string      `json:"type"`
	Room         models.Room `json:"room"`
	Navigate     bool        `json:"navigate"`
	Transitioned bool        `json:"transitioned"`
}

// RoomWSHandler streams a room's lifecycle to one viewer. Each connection owns its own
// poll task, which is stopped when the client leaves.
func RoomWSHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		path := r.URL.Path
		roomID := r.PathValue("id")
		network := models.Network(r.PathValue("network"))

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{roomSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != roomSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}
		if !network.Valid() {
			c.Close(InvalidNetworkError, "unknown network")
			return
		}

		// CloseRead drains client frames; ctx ends when the client goes away.
		ctx := c.CloseRead(r.Context())
		out := make(chan lifecycle.Outcome, 8)
		entry := s.Logger.WithFields(logrus.Fields{"network": network, "room": roomID, "remote": remoteAddr})

		watchID, err := s.Scheduler.Watch(ctx, network, roomID, func(o lifecycle.Outcome) {
			select {
			case out <- o:
			default:
				entry.Warn("viewer is not keeping up, dropping room update")
			}
		})
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		case errors.Is(err, lifecycle.ErrNoControl):
			c.Close(NoControlError, "room has no control object")
			return
		case err != nil:
			entry.Errorf("watch failed: %v", err)
			c.Close(websocket.StatusInternalError, "watch failed")
			return
		}
		defer s.Scheduler.Unwatch(watchID)

		middleware.LogWebSocketConnect(s.Logger, remoteAddr, path)
		err = writeRoomUpdates(ctx, c, out, entry)
		middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, path, err)
	}
}

// writeRoomUpdates forwards outcomes until the client leaves or the room closes.
func writeRoomUpdates(ctx context.Context, c *websocket.Conn, out <-chan lifecycle.Outcome, entry *logrus.Entry) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}

		case o := <-out:
			data, err := json.Marshal(roomUpdate{
				Type:         "room_update",
				Room:         o.Room,
				Navigate:     o.Navigate,
				Transitioned: o.Transitioned,
			})
			if err != nil {
				entry.Warnf("failed to marshal room update: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
			if o.Room.Status == models.StatusClosed {
				c.Close(RoomClosedError, "room closed")
				return nil
			}
		}
	}
}
