package httpapi

import (
	"net/http"

	"kfolx-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

var feedUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ListingsSocket streams new-ad events. Client messages are read and dropped
// until the connection closes.
func (s *Server) ListingsSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Feed.Add(conn)
	defer func() {
		s.Feed.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := services.CheckHealth(r.Context(), s.Store, s.uploadsDir(), s.Feed)
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, report)
}
