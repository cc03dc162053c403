package handlers

import (
	"net/http"
	"time"

	"photowall/internal/index"
	"photowall/internal/logging"
	"photowall/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The feed is read-only and carries no credentials, so cross-origin
	// viewers are allowed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedMessage is the wire format of the live feed. Type is "snapshot"
// for the initial full state and "update" for every diff after it.
type feedMessage struct {
	Type      string        `json:"type"`
	Images    []index.Image `json:"images,omitempty"`
	Additions []index.Image `json:"additions,omitempty"`
	Deletions []index.Image `json:"deletions,omitempty"`
}

// Feed upgrades the connection to a WebSocket and streams the index:
// first the full snapshot, then every update, in order, with no gap
// between the two.
func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Warn("Feed: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snap, sub, err := h.index.SubscribeThenSnapshot(r.Context())
	if err != nil {
		logging.Error("Feed: subscribe failed: %v", err)
		return
	}
	defer sub.Cancel()

	metrics.FeedConnections.Inc()
	defer metrics.FeedConnections.Dec()
	logging.Debug("Feed: connection from %s (subscription %s)", r.RemoteAddr, sub.ID())

	if err := writeFeedMessage(conn, feedMessage{Type: "snapshot", Images: snap.Images}); err != nil {
		logging.Debug("Feed: snapshot write failed: %v", err)
		return
	}

	// The reader goroutine only services pongs and detects the close.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				// Index actor stopped; say goodbye cleanly.
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			msg := feedMessage{Type: "update", Additions: update.Additions, Deletions: update.Deletions}
			if err := writeFeedMessage(conn, msg); err != nil {
				logging.Debug("Feed: update write failed: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readerDone:
			return
		}
	}
}

func writeFeedMessage(conn *websocket.Conn, msg feedMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	metrics.FeedMessagesSent.Inc()
	return nil
}
