package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"quizesch/internal/app"
	"quizesch/internal/domain"
	"quizesch/internal/question"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz run per websocket connection: quiz selection,
// navigation, answering, evaluation, and trust votes.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type selectPayload struct {
	FileID string `json:"fileId"`
}

type answerPayload struct {
	Index  int             `json:"index"`
	Answer json.RawMessage `json:"answer"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type votePayload struct {
	VoteType domain.VoteType `json:"voteType"`
}

type questionView struct {
	FileID    string             `json:"fileId"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	Question  *domain.Question   `json:"question,omitempty"`
	Answer    *domain.Answer     `json:"answer,omitempty"`
	Evaluated bool               `json:"evaluated"`
	Shuffled  bool               `json:"shuffled"`
	Restored  bool               `json:"restored,omitempty"`
	Outcomes  []question.Outcome `json:"outcomes,omitempty"`
}

type resultsView struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

type voteView struct {
	FileID string            `json:"fileId"`
	Index  int               `json:"index"`
	Result domain.VoteResult `json:"result"`
}

// ServeWS upgrades the request and runs the client session loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := &clientSession{
		service:      h.service,
		run:          app.NewQuizRun(),
		send:         make(chan any, 16),
		closeSignals: make(chan struct{}),
	}
	session.serve(r.Context(), conn)
}

type clientSession struct {
	service *app.QuizService
	run     *app.QuizRun

	send         chan any
	closeSignals chan struct{}
	inflight     sync.WaitGroup
	cancelSub    func()
}

func (s *clientSession) serve(ctx context.Context, conn *websocket.Conn) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range s.send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Keep draining so senders never block on a dead connection.
				broken = true
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		s.dispatch(ctx, inbound)
	}

	s.run.Unload()
	if s.cancelSub != nil {
		s.cancelSub()
	}
	close(s.closeSignals)
	s.inflight.Wait()
	close(s.send)
	<-writerDone
}

func (s *clientSession) dispatch(ctx context.Context, inbound inboundMessage) {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.FileID == "" {
			s.sendError("invalid select payload")
			return
		}
		run, restored, err := s.service.Open(ctx, payload.FileID)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		s.run = run
		s.sendQuestionView(restored)
		s.watchProgress()

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError("invalid answer payload")
			return
		}
		questions := s.run.Questions()
		if payload.Index < 0 || payload.Index >= len(questions) {
			// Engine semantics: out-of-range answers are dropped, not errors.
			return
		}
		answer := question.Decode(questions[payload.Index].Type, payload.Answer)
		s.run.SaveAnswer(payload.Index, answer)
		s.saveProgress(ctx)

	case "next":
		if s.run.GoNext() {
			s.saveProgress(ctx)
		}
		s.sendQuestionView(false)

	case "previous":
		if s.run.GoPrevious() {
			s.saveProgress(ctx)
		}
		s.sendQuestionView(false)

	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError("invalid goto payload")
			return
		}
		if s.run.SetCurrentIndex(payload.Index) {
			s.saveProgress(ctx)
		}
		s.sendQuestionView(false)

	case "evaluate":
		s.run.MarkCurrentEvaluated()
		s.saveProgress(ctx)
		s.sendQuestionView(false)

	case "shuffle":
		s.run.ToggleShuffle()
		s.saveProgress(ctx)
		s.sendQuestionView(false)

	case "reset":
		s.run.ResetCurrentAnswer()
		s.saveProgress(ctx)
		s.sendQuestionView(false)

	case "restart":
		s.run.ResetAll()
		s.saveProgress(ctx)
		s.sendQuestionView(false)

	case "submit":
		score := s.run.ComputeFinalScore()
		s.post(outboundMessage[resultsView]{Type: "results", Payload: resultsView{Score: score, Total: s.run.Len()}})
		// Submitting a quiz retires its saved progress.
		if fileID := s.run.FileID(); fileID != "" {
			if err := s.service.ClearProgress(ctx, fileID); err != nil {
				log.Printf("ws: clear progress after submit: %v", err)
			}
		}

	case "clearProgress":
		if fileID := s.run.FileID(); fileID != "" {
			if err := s.service.ClearProgress(ctx, fileID); err != nil {
				s.sendError("could not clear progress")
			}
		}

	case "clearAllProgress":
		if err := s.service.ClearAllProgress(ctx); err != nil {
			s.sendError("could not clear progress")
		}

	case "overview":
		overview, err := s.service.Overview(ctx)
		if err != nil {
			s.sendError("could not load progress overview")
			return
		}
		s.post(outboundMessage[map[string]domain.ProgressSnapshot]{Type: "overview", Payload: overview})

	case "vote":
		var payload votePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError("invalid vote payload")
			return
		}
		s.fetchVote(ctx, func(ctx context.Context, key domain.QuestionKey) (domain.VoteResult, error) {
			return s.service.Trust().RecordVote(ctx, key, payload.VoteType)
		})

	case "votes":
		s.fetchVote(ctx, s.service.Trust().GetVote)

	default:
		s.sendError("unsupported message type")
	}
}

// fetchVote runs a vote operation for the currently displayed question
// without blocking the session loop. The response is discarded when the user
// has navigated away from that question in the meantime; a stale tally must
// never be rendered against a different question.
func (s *clientSession) fetchVote(ctx context.Context, op func(context.Context, domain.QuestionKey) (domain.VoteResult, error)) {
	if !s.run.Loaded() {
		s.sendError("no quiz selected")
		return
	}
	key := domain.QuestionKey{FileID: s.run.FileID(), Index: s.run.CurrentIndex()}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		result, err := op(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrIdentityPending) {
				s.post(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "identity pending, try again shortly"}})
				return
			}
			log.Printf("ws: vote operation failed: %v", err)
			s.post(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "vote failed, please retry"}})
			return
		}
		if s.run.FileID() != key.FileID || s.run.CurrentIndex() != key.Index {
			return
		}
		s.post(outboundMessage[voteView]{Type: "voteData", Payload: voteView{FileID: key.FileID, Index: key.Index, Result: result}})
	}()
}

func (s *clientSession) sendQuestionView(restored bool) {
	view := questionView{
		FileID:    s.run.FileID(),
		Index:     s.run.CurrentIndex(),
		Total:     s.run.Len(),
		Evaluated: s.run.CurrentEvaluated(),
		Shuffled:  s.run.Shuffled(),
		Restored:  restored,
	}
	if q, ok := s.run.CurrentQuestion(); ok {
		view.Question = &q
		view.Answer = s.run.CurrentAnswer()
		if view.Evaluated {
			view.Outcomes = question.Outcomes(q, view.Answer)
		}
	}
	s.post(outboundMessage[questionView]{Type: "question", Payload: view})
}

// watchProgress subscribes to the active run and forwards every summary to
// the client. All mutations broadcast through the run, so the session never
// has to remember which operations changed the aggregate progress. A fresh
// subscription replaces the previous run's.
func (s *clientSession) watchProgress() {
	if s.cancelSub != nil {
		s.cancelSub()
	}
	summaries, cancel := s.run.Subscribe()
	s.cancelSub = cancel

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for summary := range summaries {
			s.post(outboundMessage[domain.ProgressSummary]{Type: "progress", Payload: summary})
		}
	}()
}

func (s *clientSession) saveProgress(ctx context.Context) {
	if s.run.FileID() == "" {
		return
	}
	if err := s.service.SaveProgress(ctx, s.run); err != nil {
		log.Printf("ws: save progress: %v", err)
	}
}

func (s *clientSession) sendError(message string) {
	s.post(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}

func (s *clientSession) post(msg any) {
	select {
	case s.send <- msg:
	case <-s.closeSignals:
	}
}
