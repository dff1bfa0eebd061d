package preview

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// viewer is one WebSocket connection. Its queue holds at most one pending
// update; a newer update replaces an unsent older one.
type viewer struct {
	conn  *websocket.Conn
	queue chan Update
	done  chan struct{}
}

func newViewer(conn *websocket.Conn) *viewer {
	return &viewer{
		conn:  conn,
		queue: make(chan Update, 1),
		done:  make(chan struct{}),
	}
}

// push never blocks. Callers hold Server.mu.
func (v *viewer) push(u Update) {
	for {
		select {
		case v.queue <- u:
			return
		default:
		}
		select {
		case old := <-v.queue:
			if old.Generation > u.Generation {
				u = old
			}
		default:
		}
	}
}

// writeLoop sends queued updates in generation order until the viewer
// disconnects
func (v *viewer) writeLoop() {
	var sent uint64
	for {
		select {
		case <-v.done:
			return
		case u := <-v.queue:
			if sent != 0 && u.Generation <= sent {
				continue
			}
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteJSON(u); err != nil {
				log.Printf("WebSocket write failed: %v", err)
				v.conn.Close()
				return
			}
			sent = u.Generation
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("Viewer connected from %s", conn.RemoteAddr())
	metrics := s.pipeline.Metrics()
	metrics.ViewerConnected()

	v := newViewer(conn)
	s.mu.Lock()
	s.viewers[v] = struct{}{}
	s.mu.Unlock()

	// Registered before reading current so no publish is missed
	initial := newUpdate(s.current())
	s.mu.Lock()
	v.push(initial)
	s.mu.Unlock()
	go v.writeLoop()

	defer func() {
		s.mu.Lock()
		delete(s.viewers, v)
		s.mu.Unlock()
		close(v.done)
		metrics.ViewerDisconnected()
		log.Printf("Viewer disconnected")
	}()

	// Viewers only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}
