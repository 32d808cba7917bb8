package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"notequiz/internal/app"
	"notequiz/internal/domain"
	"notequiz/internal/telemetry"
)

// GameHandler plays one game session per WebSocket connection.
type GameHandler struct {
	service  *app.Service
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewGameHandler(service *app.Service, metrics *telemetry.Metrics, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		service: service,
		metrics: metrics,
		logger:  logger,
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
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs a session for the moduleId query parameter.
// Outbound messages are "state" on every change, "complete" once, and "error".
// Inbound messages are "answer" {option} and "continue".
func (h *GameHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	moduleID := r.URL.Query().Get("moduleId")
	if moduleID == "" {
		http.Error(w, "missing moduleId", http.StatusBadRequest)
		return
	}
	if _, err := h.service.Module(moduleID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartGame(moduleID, h.metrics.ObserveCompletion)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()
	h.metrics.SessionsStarted.Inc()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.DebugContext(r.Context(), "ws write failed", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: state}}
				if state.Phase == domain.PhaseComplete {
					if result, ok := session.Result(); ok {
						msgs = append(msgs, outboundMessage[any]{Type: "complete", Payload: result})
					}
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
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
		if err := h.handle(session, inbound); err != nil {
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *GameHandler) handle(session *app.GameSession, inbound inboundMessage) error {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
			return errInvalidAnswer
		}
		_, err := session.Answer(*payload.Option)
		return err
	case "continue":
		_, err := session.Continue()
		return err
	default:
		return errUnsupportedMessage
	}
}
