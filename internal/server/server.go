// Package server exposes the plan store and the computer opponent to the
// browser client over websockets.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/nongrid/internal/planstore"
	"github.com/Faultbox/nongrid/pkg/ai"
	"github.com/Faultbox/nongrid/pkg/board"
	"github.com/Faultbox/nongrid/pkg/tiling"
)

// Socket actions.
const (
	ActionSave   = "Save"
	ActionList   = "List"
	ActionLoad   = "Load"
	ActionMoveAI = "Move-AI"
	ActionError  = "Error"
)

// ReplySuccess is the Save payload for a stored plan.
const ReplySuccess = "Success"

// Request is the message exchanged in both directions. Field names match
// the browser client, which sends them untagged.
type Request struct {
	Key       int
	Action    string
	Payload   string
	Player    string
	BoardPlan string
}

// handlerFunc answers one request. A nil reply sends nothing.
type handlerFunc func(ctx context.Context, req Request) (*Request, error)

// Server serves /boards (plan Save, List, Load) and /ai (Move-AI).
type Server struct {
	store    *planstore.Store
	search   ai.Options
	log      *zap.Logger
	upgrader websocket.Upgrader

	boards map[string]handlerFunc
	moves  map[string]handlerFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSearch sets the limits used for Move-AI.
func WithSearch(opts ai.Options) Option {
	return func(s *Server) {
		s.search = opts
	}
}

// New returns a server backed by store.
func New(store *planstore.Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   zap.NewNop(),
		upgrader: websocket.Upgrader{
			// The client page may be served from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.search.Logger == nil {
		s.search.Logger = s.log.Named("ai")
	}

	s.boards = map[string]handlerFunc{
		ActionSave: s.handleSave,
		ActionList: s.handleList,
		ActionLoad: s.handleLoad,
	}
	s.moves = map[string]handlerFunc{
		ActionMoveAI: s.handleMoveAI,
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/boards", s.socket(s.boards))
	mux.HandleFunc("/ai", s.socket(s.moves))
	return mux
}

// Serve listens on addr until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

// socket upgrades the connection and dispatches each text message to the
// handler registered for its action.
func (s *Server) socket(handlers map[string]handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		log := s.log.With(zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
		log.Debug("client connected")

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("read failed", zap.Error(err))
				}
				return
			}
			if msgType != websocket.TextMessage {
				log.Warn("closing on non-text message", zap.Int("type", msgType))
				return
			}

			var req Request
			if err := json.NewDecoder(bytes.NewReader(msg)).Decode(&req); err != nil {
				log.Debug("malformed request", zap.Error(err))
				if err := writeReply(conn, Request{Action: ActionError, Payload: "malformed request"}); err != nil {
					return
				}
				continue
			}

			handler, ok := handlers[req.Action]
			if !ok {
				log.Debug("unknown action", zap.String("action", req.Action))
				if err := writeReply(conn, Request{Key: req.Key, Action: ActionError, Payload: "unknown action " + req.Action}); err != nil {
					return
				}
				continue
			}

			reply, err := handler(r.Context(), req)
			if err != nil {
				log.Info("request failed", zap.String("action", req.Action), zap.Error(err))
				reply = &Request{Key: req.Key, Action: ActionError, Payload: err.Error()}
			}
			if reply == nil {
				continue
			}
			if err := writeReply(conn, *reply); err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}

func writeReply(conn *websocket.Conn, reply Request) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// handleSave stores the plan in Payload under the name in Player. Refusals
// are reported in the reply payload, as the client shows them verbatim.
func (s *Server) handleSave(_ context.Context, req Request) (*Request, error) {
	reply := &Request{Key: req.Key, Action: ActionSave, Payload: ReplySuccess}

	plan, err := tiling.DecodePlan(bytes.NewReader([]byte(req.Payload)), tiling.JSON)
	if err == nil {
		err = s.store.Save(req.Player, plan, tiling.JSON)
	}
	switch {
	case errors.Is(err, planstore.ErrExists):
		reply.Payload = "Board " + req.Player + " already exists"
	case err != nil:
		reply.Payload = err.Error()
	}
	if err != nil {
		s.log.Info("plan not saved", zap.String("name", req.Player), zap.Error(err))
	}
	return reply, nil
}

// handleList replies with a JSON array of plan names.
func (s *Server) handleList(_ context.Context, req Request) (*Request, error) {
	names, err := s.store.List()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	return &Request{Key: req.Key, Action: ActionList, Payload: string(data)}, nil
}

// handleLoad replies with the named plan in the board editor's legacy form,
// or as plain JSON when the plan closes edges.
func (s *Server) handleLoad(_ context.Context, req Request) (*Request, error) {
	plan, err := s.store.Load(req.Player)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tiling.EncodePlan(&buf, plan, tiling.Legacy)
	if errors.Is(err, tiling.ErrNoLegacyForm) {
		buf.Reset()
		err = tiling.EncodePlan(&buf, plan, tiling.JSON)
	}
	if err != nil {
		return nil, err
	}
	return &Request{Key: req.Key, Action: ActionLoad, Payload: buf.String(), BoardPlan: req.Player}, nil
}

// handleMoveAI plays one computer move on the records in Payload for the
// colour in Player, or the colour the records imply when Player is empty.
// The reply carries the records after the move and the colour to move next.
func (s *Server) handleMoveAI(ctx context.Context, req Request) (*Request, error) {
	records, err := board.UnmarshalRecords([]byte(req.Payload))
	if err != nil {
		return nil, err
	}
	b, err := board.FromRecords(records, board.WithLogger(s.log.Named("board")))
	if err != nil {
		return nil, err
	}
	if req.Player != "" {
		var c board.Colour
		if err := c.UnmarshalText([]byte(req.Player)); err != nil {
			return nil, err
		}
		if err := b.SetTurn(c); err != nil {
			return nil, err
		}
	}

	mover := b.CurrentPlayer()
	move, err := ai.Search(ctx, b, s.search)
	if err != nil {
		return nil, err
	}
	captured, err := ai.Apply(b, move)
	if err != nil {
		return nil, err
	}
	s.log.Debug("computer move",
		zap.Stringer("colour", mover),
		zap.Stringer("move", move),
		zap.Ints("captured", captured),
	)

	data, err := board.MarshalRecords(b.SavePoints())
	if err != nil {
		return nil, err
	}
	return &Request{
		Key:     req.Key,
		Action:  ActionMoveAI,
		Payload: string(data),
		Player:  b.CurrentPlayer().String(),
	}, nil
}
