package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

const pingInterval = 30 * time.Second

type WSHandler struct {
	feed     *app.StatusFeed
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.StatusFeed, logger logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		feed: feed,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and streams the caller's status board until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		writeError(w, h.log, domain.ErrUnauthorized, "")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel, err := h.feed.Subscribe(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "status feed unavailable", Code: "feed_error"}})
		return
	}
	defer cancel()

	logger := h.log.WithField("user", userID)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// single writer: the gorilla connection does not support concurrent writes
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case board, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(outboundMessage[domain.StatusBoard]{Type: "statuses", Payload: board}); err != nil {
					logger.WithError(err).Debug("ws write error")
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// inbound messages are ignored; reading detects the close frame
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-writerDone
}
