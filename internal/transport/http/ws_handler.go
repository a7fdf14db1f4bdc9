package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-assessment/internal/app"
	"quiz-assessment/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
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
	Answer json.RawMessage `json:"answer"`
}

type confidencePayload struct {
	Level string `json:"level"`
}

type abandonedPayload struct {
	SessionID string `json:"sessionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and runs one quiz session over the socket.
// The session lives as long as the connection unless it is abandoned first.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.OpenSession(ctx, quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	events, cancel, err := h.service.Subscribe(ctx, session.ID())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write failed", "session_id", session.ID(), "error", err)
				// Keep draining so the read loop never blocks on send.
				for range send {
				}
				return
			}
		}
	}()

	c := &wsConn{h: h, ctx: ctx, session: session, events: events, send: send}
	c.sendState()

	abandoned := false
	for !abandoned {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		abandoned = c.dispatch(inbound)
		c.flushEvents()
	}

	if !abandoned {
		h.service.Close(ctx, session.ID())
	}
	close(send)
	<-writerDone
}

// wsConn carries the per-connection state of ServeWS.
type wsConn struct {
	h       *WSHandler
	ctx     context.Context
	session *app.Session
	events  <-chan app.Event
	send    chan<- outboundMessage[any]
}

// dispatch runs one inbound command and reports whether the session was abandoned.
func (c *wsConn) dispatch(in inboundMessage) bool {
	id := c.session.ID()
	svc := c.h.service

	switch in.Type {
	case "start":
		c.reply(svc.Start(c.ctx, id))
	case "answer":
		answer, err := c.decodeAnswer(in.Payload)
		if err == nil {
			err = svc.RecordAnswer(c.ctx, id, answer)
		}
		c.reply(err)
	case "confidence":
		var payload confidencePayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			c.sendError(fmt.Errorf("%w: confidence payload", domain.ErrInvalidConfidence))
			return false
		}
		c.reply(svc.SetConfidence(c.ctx, id, domain.Confidence(payload.Level)))
	case "submit":
		feedback, err := svc.SubmitAnswer(c.ctx, id)
		if err != nil {
			c.sendError(err)
			return false
		}
		c.send <- outboundMessage[any]{Type: "feedback", Payload: feedback}
	case "next":
		// The completed event, if any, is flushed after dispatch.
		c.reply(ignoreAttempt(svc.NextQuestion(c.ctx, id)))
	case "abandon":
		if err := svc.Abandon(c.ctx, id); err != nil {
			c.sendError(err)
			return false
		}
		return true
	case "retake":
		c.reply(svc.Retake(c.ctx, id))
	default:
		c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "unsupported", Message: "unsupported message type"}}
	}
	return false
}

func (c *wsConn) decodeAnswer(raw json.RawMessage) (domain.Answer, error) {
	q, ok := c.session.CurrentQuestion()
	if !ok {
		return nil, fmt.Errorf("%w: no active question", domain.ErrIllegalTransition)
	}
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnswerShape, err)
	}
	if len(payload.Answer) == 0 || string(payload.Answer) == "null" {
		return nil, nil
	}
	return domain.DecodeAnswer(q.Type(), payload.Answer)
}

// reply sends the new state on success and an error message otherwise.
func (c *wsConn) reply(err error) {
	if err != nil {
		c.sendError(err)
		return
	}
	c.sendState()
}

func (c *wsConn) sendState() {
	c.send <- outboundMessage[any]{Type: "state", Payload: newStateView(c.session)}
}

func (c *wsConn) sendError(err error) {
	c.h.logger.Debug("ws command rejected", "session_id", c.session.ID(), "error", err)
	c.send <- outboundMessage[any]{Type: "error", Payload: newErrorPayload(err)}
}

// flushEvents forwards events published by the last command. Sessions
// publish synchronously, so everything is already queued.
func (c *wsConn) flushEvents() {
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			switch ev.Type {
			case app.EventCompleted:
				c.send <- outboundMessage[any]{Type: "completed", Payload: ev.Completion}
			case app.EventAbandoned:
				c.send <- outboundMessage[any]{Type: "abandoned", Payload: abandonedPayload{SessionID: ev.SessionID}}
			}
		default:
			return
		}
	}
}

func ignoreAttempt(_ *domain.QuizAttempt, err error) error {
	return err
}
