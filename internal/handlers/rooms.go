// internal/handlers/rooms.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/stakettt/internal/room"
)

type createRoomRequest struct {
	Name     string          `json:"name"`
	Stake    string          `json:"stake"`
	TxResult json.RawMessage `json:"txResult"`
}

type joinRequest struct {
	ControlID string `json:"controlId"`
	Stake     string `json:"stake"`
}

type joinResponse struct {
	OK           bool   `json:"ok"`
	MinStakeMist string `json:"minStakeMist,omitempty"`
}

// ListRoomsHandler returns the network's rooms, newest first.
func ListRoomsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Rooms.Store().List(r.Context(), network))
	}
}

// CreateRoomHandler records a room for the signed-in wallet from its start transaction result.
func CreateRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creator, ok := walletFromRequest(w, r)
		if !ok {
			return
		}
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		var req createRoomRequest
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad room request payload")
			return
		}

		var tx any
		if len(req.TxResult) > 0 {
			if err := unmarshalNumbers(req.TxResult, &tx); err != nil {
				writeMessage(w, http.StatusBadRequest, "txResult is not valid JSON")
				return
			}
		}

		created, err := s.Rooms.Create(r.Context(), room.CreateRequest{
			Network:  network,
			Name:     req.Name,
			Stake:    req.Stake,
			Creator:  creator,
			TxResult: tx,
		})
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GetRoomHandler returns one room or 404.
func GetRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		found, exists := s.Rooms.Store().GetByID(r.Context(), network, r.PathValue("id"))
		if !exists {
			writeServiceError(w, s.Logger, room.ErrRoomNotFound)
			return
		}
		writeJSON(w, http.StatusOK, found)
	}
}

// DeleteRoomHandler removes a room. Only its creator may do so.
func DeleteRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := walletFromRequest(w, r)
		if !ok {
			return
		}
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		if err := s.Rooms.Delete(r.Context(), network, r.PathValue("id"), actor); err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// JoinCheckHandler validates a join before the client signs the transaction.
func JoinCheckHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		var req joinRequest
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad join request payload")
			return
		}
		minMist, err := s.Rooms.CheckJoin(r.Context(), network, req.ControlID, req.Stake)
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, joinResponse{OK: true, MinStakeMist: minMist})
	}
}

// PollRoomHandler runs a single poll cycle and returns its outcome.
func PollRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		out, err := s.Scheduler.Controller().Poll(r.Context(), network, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GameViewHandler returns the board of the room's game, or of its control object while no
// game has been discovered.
func GameViewHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		network, ok := networkParam(w, r.PathValue("network"))
		if !ok {
			return
		}
		view, err := s.Scheduler.Controller().GameView(r.Context(), network, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// unmarshalNumbers decodes JSON keeping numbers as json.Number, like the chain client does.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
