// Package web serves the upload wizard to browsers over a websocket. Each
// connection drives its own wizard and upload lifecycle.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dunamismax/memoryflow/internal/domain"
	"github.com/dunamismax/memoryflow/internal/lifecycle"
	"github.com/dunamismax/memoryflow/internal/wizard"
	"github.com/gorilla/websocket"
)

const (
	defaultWriteWait = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageBytes  = 40 << 20
	sendBuffer       = 64
)

type Host struct {
	logger     *log.Logger
	normalizer lifecycle.Normalizer
	submitter  lifecycle.Submitter
	cfg        lifecycle.Config
	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	sessions   sync.WaitGroup
	closing    chan struct{}
	closeOnce  sync.Once
	// writeWait bounds each frame write; a client that stops reading is
	// dropped once it expires.
	writeWait time.Duration
}

func NewHost(logger *log.Logger, normalizer lifecycle.Normalizer, submitter lifecycle.Submitter, cfg lifecycle.Config) *Host {
	h := &Host{
		logger:     logger,
		normalizer: normalizer,
		submitter:  submitter,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 << 10,
			WriteBufferSize: 16 << 10,
		},
		mux:       http.NewServeMux(),
		closing:   make(chan struct{}),
		writeWait: defaultWriteWait,
	}
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	h.mux.HandleFunc("GET /ws", h.handleSocket)
	return h
}

func (h *Host) Handler() http.Handler {
	return h.mux
}

// Close disconnects every open session and waits for them to finish,
// including uploads that were still in flight. http.Server.Shutdown does not
// track hijacked websocket connections, so callers run both.
func (h *Host) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
	h.sessions.Wait()
}

func (h *Host) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed remote=%s err=%v", r.RemoteAddr, err)
		return
	}

	h.sessions.Add(1)
	defer h.sessions.Done()

	s := h.newSession(conn, r.RemoteAddr)
	s.logger.Printf("session opened remote=%s", r.RemoteAddr)
	s.run(r.Context())
	s.logger.Printf("session closed remote=%s", r.RemoteAddr)
}

type session struct {
	logger    *log.Logger
	conn      *websocket.Conn
	writeWait time.Duration
	send      chan []byte
	// done closes when the read side ends, gone when the write pump exits.
	done    chan struct{}
	gone    chan struct{}
	closing <-chan struct{}
	events  *socketPresenter
	ctrl    *lifecycle.Controller
	wizard  *wizard.Wizard
	uploads sync.WaitGroup
}

func (h *Host) newSession(conn *websocket.Conn, remote string) *session {
	logger := log.New(h.logger.Writer(), h.logger.Prefix()+"session="+remote+" ", h.logger.Flags())
	s := &session{
		logger:    logger,
		conn:      conn,
		writeWait: h.writeWait,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		gone:      make(chan struct{}),
		closing:   h.closing,
	}
	s.events = &socketPresenter{logger: logger, send: s.send, done: s.done, gone: s.gone}
	s.ctrl = lifecycle.NewController(logger, h.normalizer, h.submitter, s.events, h.cfg)
	s.wizard = wizard.New(logger, s.events, s.ctrl, h.cfg.Messages)
	return s
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		select {
		case <-s.closing:
			_ = s.conn.Close()
		case <-s.done:
		}
	}()

	go s.writePump()

	s.wizard.Start()
	s.readLoop(ctx)

	cancel()
	close(s.done)
	s.ctrl.Stop()
	<-s.gone
	s.uploads.Wait()
}

func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("read failed err=%v", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			s.events.emit(Event{Type: EventError, Text: "malformed command"})
			continue
		}
		s.dispatch(ctx, cmd)
	}
}

func (s *session) dispatch(ctx context.Context, cmd Command) {
	switch cmd.Type {
	case CommandSelect:
		s.wizard.SelectPhoto(wizard.File{Name: cmd.Name, Data: cmd.Data})
	case CommandCaption:
		s.wizard.EditCaption(cmd.Text)
	case CommandPreview:
		_ = s.wizard.Preview()
	case CommandUpload:
		s.uploads.Add(1)
		go func() {
			defer s.uploads.Done()
			err := s.wizard.Upload(ctx)
			switch {
			case err == nil:
			case errors.Is(err, lifecycle.ErrBusy):
				s.logger.Printf("upload ignored, previous attempt still in flight")
			case errors.Is(err, domain.ErrNoImageSelected):
			default:
				s.logger.Printf("upload failed err=%v", err)
			}
		}()
	default:
		s.events.emit(Event{Type: EventError, Text: "unknown command: " + cmd.Type})
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		close(s.gone)
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.writeWait),
			)
			return
		}
	}
}
