// internal/handlers/server.go
package handlers

import (
	"net/http"
	"time"

	"github.com/jason-s-yu/stakettt/internal/lifecycle"
	"github.com/jason-s-yu/stakettt/internal/middleware"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/jason-s-yu/stakettt/internal/sui"
	"github.com/sirupsen/logrus"
)

// Server holds the dependencies shared by every HTTP handler.
type Server struct {
	Logger      *logrus.Logger
	Rooms       *room.Service
	Scheduler   *lifecycle.Scheduler
	Chain       *sui.Client
	Marker      string
	PingMessage string

	now func() time.Time
}

func NewServer(logger *logrus.Logger, rooms *room.Service, sched *lifecycle.Scheduler, chain *sui.Client, marker string) *Server {
	return &Server{
		Logger:      logger,
		Rooms:       rooms,
		Scheduler:   sched,
		Chain:       chain,
		Marker:      marker,
		PingMessage: "ping",
		now:         time.Now,
	}
}

// NewRouter registers every route on a ServeMux and wraps it in the logging and CORS
// middleware.
func NewRouter(s *Server, allowedOrigin string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", PingHandler(s))
	mux.HandleFunc("POST /api/auth/session", SessionHandler(s))

	mux.HandleFunc("GET /api/controls/owner/{address}", ControlsByOwnerHandler(s))
	mux.HandleFunc("GET /api/controls/by_type", ControlsByTypeHandler(s))

	mux.HandleFunc("GET /api/rooms/{network}", ListRoomsHandler(s))
	mux.HandleFunc("POST /api/rooms/{network}", CreateRoomHandler(s))
	mux.HandleFunc("POST /api/rooms/{network}/join", JoinCheckHandler(s))
	mux.HandleFunc("GET /api/rooms/{network}/{id}", GetRoomHandler(s))
	mux.HandleFunc("DELETE /api/rooms/{network}/{id}", DeleteRoomHandler(s))
	mux.HandleFunc("POST /api/rooms/{network}/{id}/poll", PollRoomHandler(s))
	mux.HandleFunc("GET /api/rooms/{network}/{id}/game", GameViewHandler(s))
	mux.HandleFunc("GET /api/rooms/{network}/{id}/ws", RoomWSHandler(s))

	return middleware.CORS(allowedOrigin)(middleware.LogMiddleware(s.Logger)(mux))
}

// PingHandler answers the liveness probe.
func PingHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": s.PingMessage})
	}
}
