package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
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

type selectPayload struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

type navigatePayload struct {
	Delta int `json:"delta"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type attemptPayload struct {
	QuizID       string                `json:"quizId"`
	StudentID    string                `json:"studentId"`
	Title        string                `json:"title"`
	Subject      string                `json:"subject"`
	Questions    []app.ViewQuestion    `json:"questions"`
	Answers      []string              `json:"answers"`
	CurrentIndex int                   `json:"currentIndex"`
	RemainingMS  int64                 `json:"remainingMs"`
	State        app.SubmissionState   `json:"state"`
	Result       *domain.AttemptResult `json:"result,omitempty"`
}

type tickPayload struct {
	RemainingMS int64 `json:"remainingMs"`
}

type positionPayload struct {
	CurrentIndex int `json:"currentIndex"`
}

type answerSavedPayload struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

// ServeWS upgrades HTTP requests to websockets and drives one attempt per
// connection: select/navigate/submit inbound, attempt state and countdown
// ticks outbound.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	studentID := r.URL.Query().Get("studentId")
	if quizID == "" || studentID == "" {
		http.Error(w, "missing quizId or studentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	attempt, err := h.service.Start(r.Context(), quizID, studentID)
	if err != nil {
		// Load failure is terminal for this connection; the client may retry
		// by reconnecting.
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events, cancel, err := h.service.Subscribe(r.Context(), quizID, studentID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Release(r.Context(), quizID, studentID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Snapshot goes out before any event so clients always see the attempt
	// state first, even if a tick lands during setup.
	send <- outboundMessage[any]{Type: "attempt", Payload: attemptFromView(attempt.View())}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundFromEvent(ev):
				case <-closeSignals:
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
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
				continue
			}
			if err := h.service.SelectAnswer(r.Context(), quizID, studentID, payload.Index, payload.Option); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid navigate payload"}}
				continue
			}
			if _, err := h.service.Navigate(r.Context(), quizID, studentID, payload.Delta); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "submit":
			// Deliberately not the request context: an in-flight submission
			// runs to completion or failure even if the socket drops.
			_, err := h.service.Submit(context.Background(), quizID, studentID)
			if err != nil && !errors.Is(err, domain.ErrSubmissionInFlight) && !errors.Is(err, domain.ErrAlreadySubmitted) {
				// Guard released server-side; answers are intact and the
				// client may submit again.
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func outboundFromEvent(ev app.Event) outboundMessage[any] {
	switch ev.Type {
	case app.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{RemainingMS: ev.RemainingMS}}
	case app.EventPosition:
		return outboundMessage[any]{Type: "position", Payload: positionPayload{CurrentIndex: ev.Index}}
	case app.EventAnswerSaved:
		return outboundMessage[any]{Type: "answerSaved", Payload: answerSavedPayload{Index: ev.Index, Option: ev.Option}}
	case app.EventExpired:
		return outboundMessage[any]{Type: "expired", Payload: struct{}{}}
	case app.EventResult:
		return outboundMessage[any]{Type: "result", Payload: ev.Result}
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unknown event"}}
	}
}

func attemptFromView(view app.AttemptView) attemptPayload {
	return attemptPayload{
		QuizID:       view.QuizID,
		StudentID:    view.StudentID,
		Title:        view.Title,
		Subject:      view.Subject,
		Questions:    view.Questions,
		Answers:      view.Answers,
		CurrentIndex: view.CurrentIndex,
		RemainingMS:  view.RemainingMS,
		State:        view.State,
		Result:       view.Result,
	}
}
