// Package wshost serves the overlay to a browser over a websocket. Each
// connection gets its own overlay; display events stream out as JSON and
// the page sends back close, mute and interact commands.
//
// The audio handle has one owner at a time: the first connection claims it
// and keeps it until it disconnects. Connections that arrive while it is
// claimed run their sequences silently.
package wshost

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/display"
	"tribute/internal/overlay"
	"tribute/internal/sequence"
)

const (
	writeWait  = 5 * time.Second
	outboxSize = 256
)

// Command is a message from the page.
type Command struct {
	Action string `json:"action"`
}

const (
	ActionOpen     = "open"
	ActionClose    = "close"
	ActionMute     = "mute"
	ActionInteract = "interact"
)

// Status is sent in reply to commands that change host state.
type Status struct {
	Kind    string `json:"kind"`
	Mounted bool   `json:"mounted"`
	Muted   bool   `json:"muted"`
	Audio   bool   `json:"audio"`
	Pinned  bool   `json:"pinned,omitempty"`
	Error   string `json:"error,omitempty"`
}

const statusKind = "status"

// Option configures a Server.
type Option func(*Server)

// WithAudio sets the audio handle. Only one connection at a time drives it.
func WithAudio(h audio.Handle) Option {
	return func(s *Server) { s.audio = h }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithSequenceOptions(opts ...sequence.Option) Option {
	return func(s *Server) { s.seqOpts = append(s.seqOpts, opts...) }
}

// WithCheckOrigin replaces the same-origin check used on upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// Server is an http.Handler that upgrades every request to a websocket
// session.
type Server struct {
	cfg      sequence.Config
	audio    audio.Handle
	logger   *log.Logger
	seqOpts  []sequence.Option
	upgrader websocket.Upgrader

	sessions atomic.Int64

	mu         sync.Mutex
	audioOwner *session
}

func NewServer(cfg sequence.Config, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Sessions returns the number of open connections.
func (s *Server) Sessions() int { return int(s.sessions.Load()) }

// claimAudio hands the audio handle to ss if nobody owns it. It returns nil
// when there is no handle or another session holds it.
func (s *Server) claimAudio(ss *session) audio.Handle {
	if s.audio == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioOwner != nil {
		return nil
	}
	s.audioOwner = ss
	return s.audio
}

func (s *Server) releaseAudio(ss *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioOwner == ss {
		s.audioOwner = nil
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("wshost: upgrade: %v", err)
		return
	}
	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	newSession(s, conn).run()
}

type session struct {
	server *Server
	conn   *websocket.Conn
	loop   *clock.Loop
	ov     *overlay.Overlay
	audio  audio.Handle

	outbox  chan any
	done    chan struct{}
	dropped atomic.Int64
}

func newSession(s *Server, conn *websocket.Conn) *session {
	ss := &session{
		server: s,
		conn:   conn,
		loop:   clock.NewLoop(s.logger),
		outbox: make(chan any, outboxSize),
		done:   make(chan struct{}),
	}
	ss.audio = s.claimAudio(ss)
	if s.audio != nil && ss.audio == nil {
		s.logger.Printf("wshost: audio in use by another connection, running silently")
	}
	ss.ov = overlay.New(ss.loop, s.cfg,
		overlay.WithSink(display.SinkFunc(ss.enqueueEvent)),
		overlay.WithAudio(ss.audio),
		overlay.WithLogger(s.logger),
		overlay.WithSequenceOptions(s.seqOpts...),
	)
	return ss
}

func (ss *session) run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ss.writeLoop()
	}()

	defer func() {
		ss.ov.Close()
		ss.server.releaseAudio(ss)
		ss.loop.Close()
		close(ss.done)
		<-writerDone
		ss.conn.Close()
		if n := ss.dropped.Load(); n > 0 {
			ss.server.logger.Printf("wshost: dropped %d events for a slow client", n)
		}
	}()

	if err := ss.open(); err != nil {
		ss.enqueue(Status{Kind: statusKind, Error: err.Error()})
		return
	}

	for {
		var cmd Command
		if err := ss.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ss.server.logger.Printf("wshost: read: %v", err)
			}
			return
		}
		ss.handle(cmd)
	}
}

func (ss *session) open() error {
	return ss.ov.Open(func() { ss.ov.Close() })
}

func (ss *session) handle(cmd Command) {
	st := Status{Kind: statusKind}
	switch cmd.Action {
	case ActionOpen:
		if err := ss.open(); err != nil {
			st.Error = err.Error()
		}
	case ActionClose:
		if err := ss.ov.RequestClose(); err != nil {
			st.Error = err.Error()
		}
	case ActionMute:
		ss.ov.ToggleMute()
	case ActionInteract:
		st.Pinned = ss.ov.Interact()
	default:
		st.Error = "unknown action " + cmd.Action
	}
	st.Mounted = ss.ov.Mounted()
	st.Muted = ss.ov.Muted()
	st.Audio = ss.audio != nil
	ss.enqueue(st)
}

// enqueueEvent runs on the loop and must never block it.
func (ss *session) enqueueEvent(e display.Event) {
	ss.enqueue(e)
}

func (ss *session) enqueue(m any) {
	select {
	case <-ss.done:
	case ss.outbox <- m:
	default:
		ss.dropped.Add(1)
	}
}

func (ss *session) writeLoop() {
	for {
		select {
		case <-ss.done:
			ss.drain()
			return
		case m := <-ss.outbox:
			if err := ss.write(m); err != nil {
				ss.server.logger.Printf("wshost: write: %v", err)
				ss.conn.Close()
				return
			}
		}
	}
}

// drain flushes what is queued, then says goodbye.
func (ss *session) drain() {
	for {
		select {
		case m := <-ss.outbox:
			if err := ss.write(m); err != nil {
				return
			}
		default:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = ss.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

func (ss *session) write(m any) error {
	if err := ss.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	err := ss.conn.WriteJSON(m)
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
