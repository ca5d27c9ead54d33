package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WSHandler struct {
	service  *app.ProgressService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.ProgressService, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type lessonPayload struct {
	LessonID string `json:"lessonId"`
}

type completePayload struct {
	LessonID  string `json:"lessonId"`
	Completed bool   `json:"completed"`
}

type quizPayload struct {
	LessonID string            `json:"lessonId"`
	Answers  map[string]string `json:"answers"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the progress use cases.
// One connection is one viewer of one course; progress views of the course are pushed
// to every connected viewer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	if courseID == "" {
		http.Error(w, "missing courseId", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	// Subscribing before the upgrade keeps unknown courses a plain 404, and the navigator
	// below shares the engine the subscription watches.
	engine, updates, cancel, err := h.service.Subscribe(ctx, courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer h.service.Leave(ctx, courseID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	var navMu sync.Mutex
	nav := app.NewNavigator(engine)
	active := func() outboundMessage[any] {
		return outboundMessage[any]{Type: "active", Payload: lessonPayload{LessonID: nav.Active()}}
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("course_id", courseID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "progress", Payload: view}}
				if view.Reset {
					navMu.Lock()
					nav.Reinitialize()
					msgs = append(msgs, active())
					navMu.Unlock()
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

	navMu.Lock()
	first := active()
	navMu.Unlock()
	send <- first

	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "activate":
			var payload lessonPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(errors.New("invalid activate payload"))
				continue
			}
			if _, ok := app.FindLesson(engine.Course(), payload.LessonID); !ok {
				h.log.Debug().Str("lesson_id", payload.LessonID).Msg("ignoring unknown lesson")
				continue
			}
			navMu.Lock()
			if !nav.Activate(payload.LessonID) {
				h.log.Debug().Str("lesson_id", payload.LessonID).Msg("ignoring locked lesson")
			}
			msg := active()
			navMu.Unlock()
			send <- msg
		case "complete":
			var payload completePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(errors.New("invalid complete payload"))
				continue
			}
			if _, err := h.service.SetLessonCompleted(ctx, courseID, payload.LessonID, payload.Completed); err != nil {
				if errors.Is(err, domain.ErrLessonNotFound) {
					h.log.Debug().Str("lesson_id", payload.LessonID).Msg("ignoring unknown lesson")
					continue
				}
				fail(err)
			}
		case "quiz":
			var payload quizPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(errors.New("invalid quiz payload"))
				continue
			}
			result, _, err := h.service.SubmitQuiz(ctx, courseID, payload.LessonID, payload.Answers)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "quizResult", Payload: result}
		case "next":
			navMu.Lock()
			current := nav.Active()
			navMu.Unlock()
			next, _, err := h.service.Advance(ctx, courseID, current)
			if err != nil {
				fail(err)
				continue
			}
			if next == "" {
				continue
			}
			navMu.Lock()
			nav.Activate(next)
			msg := active()
			navMu.Unlock()
			send <- msg
		case "previous":
			navMu.Lock()
			moved := nav.Previous()
			msg := active()
			navMu.Unlock()
			if moved {
				send <- msg
			}
		case "reset":
			// The reset view reaches this connection through the subscription.
			if _, err := h.service.ResetProgress(ctx, courseID); err != nil {
				fail(err)
			}
		default:
			fail(errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
