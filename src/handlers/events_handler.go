package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/username/stockfolio/src/events"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/utils"
)

const (
	eventWriteTimeout = 5 * time.Second
	heartbeatInterval = 30 * time.Second
)

// EventsHandler streams a session's events over a websocket.
type EventsHandler struct {
	bus            *events.Bus
	originPatterns []string
}

// NewEventsHandler accepts upgrades from the hosts of allowedOrigins.
func NewEventsHandler(bus *events.Bus, allowedOrigins []string) *EventsHandler {
	var patterns []string
	for _, origin := range allowedOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		} else {
			patterns = append(patterns, origin)
		}
	}
	return &EventsHandler{bus: bus, originPatterns: patterns}
}

func (h *EventsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.HandleEvents)
}

func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}
	log := logger.FromContext(r.Context()).With("sessionID", sessionID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// Client messages are ignored; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ch, cancel := h.bus.Subscribe(sessionID)
	defer cancel()
	log.Info("Client connected to event stream")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, open := <-ch:
			if !open {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				log.Warn("Failed to write event", "type", ev.Type, "error", err)
				return
			}
		case <-heartbeat.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				log.Debug("Heartbeat failed", "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
