package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service       *app.QuizService
	upgrader      websocket.Upgrader
	defaultBankID string
	tickInterval  time.Duration
	now           func() time.Time
}

func NewWSHandler(service *app.QuizService, defaultBankID string, tickInterval time.Duration) *WSHandler {
	return NewWSHandlerWithClock(service, defaultBankID, tickInterval, time.Now)
}

// NewWSHandlerWithClock lets tests drive the frame clock.
func NewWSHandlerWithClock(service *app.QuizService, defaultBankID string, tickInterval time.Duration, now func() time.Time) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = config.DefaultTickInterval
	}
	return &WSHandler{
		service:       service,
		defaultBankID: defaultBankID,
		tickInterval:  tickInterval,
		now:           now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Label string `json:"label"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one play-through per connection.
// Clicks arrive as "start", "answer" and "restart" messages; every state change
// is pushed back as a "snapshot".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	bankID := r.URL.Query().Get("bankId")
	if bankID == "" {
		bankID = h.defaultBankID
	}
	if bankID == "" {
		http.Error(w, "missing bankId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	session, err := h.service.Open(ctx, bankID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := session.ID()
	defer h.service.Close(context.Background(), sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	tickerDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				_ = conn.Close()
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		case <-closeSignals:
			return false
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if !push(outboundMessage[any]{Type: "snapshot", Payload: snap}) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Frame clock: ticks are serialized with clicks by the session lock.
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, _, err := h.service.Tick(ctx, sessionID, h.now()); err != nil {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var actErr error
		switch inbound.Type {
		case "start":
			_, _, actErr = h.service.Begin(ctx, sessionID)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			_, _, actErr = h.service.SubmitAnswer(ctx, sessionID, domain.Label(payload.Label))
		case "restart":
			_, _, actErr = h.service.Restart(ctx, sessionID)
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
			continue
		}
		if actErr != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: actErr.Error()}})
		}
	}

	close(closeSignals)
	<-updatesDone
	<-tickerDone
	close(send)
	<-writerDone
}
