// Package wsbridge carries the three sync messages over a websocket, so the
// core and the text buffer host can run in different processes.
package wsbridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dannyswat/svginspect"
	"github.com/dannyswat/svginspect/internal/buffer"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

var errSlowCore = errors.New("core is not reading its messages")

// Handler is the host side of the bridge. Each websocket connection is a
// core: ready is answered with a load of the current text, updateSvg
// replaces the file, and every change of the file is broadcast to all
// connections as load.
//
// Requests that are not websocket upgrades receive the current text.
type Handler struct {
	file     *buffer.File
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHandler(file *buffer.File, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		file:   file,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Start watches the file and broadcasts its changes until ctx is done.
func (h *Handler) Start(ctx context.Context) error {
	changes, err := h.file.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for text := range changes {
			h.broadcast(svginspect.Message{Type: svginspect.MsgLoad, SVGText: text})
		}
		h.closeAll()
	}()
	return nil
}

// Clients returns the number of connected cores.
func (h *Handler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		h.serveText(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := newClient(conn)
	h.register(c)
	defer h.unregister(c)

	logger := h.logger.With("remote", conn.RemoteAddr().String())
	logger.Info("core connected")
	go c.writeLoop(logger)

	for {
		var msg svginspect.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			break
		}

		switch msg.Type {
		case svginspect.MsgReady:
			if err := h.answerReady(c); err != nil {
				if errors.Is(err, errSlowCore) {
					logger.Warn("dropping slow core")
					return
				}
				logger.Error("failed to read document", "error", err)
			}
		case svginspect.MsgUpdateSVG:
			// The watcher broadcasts the new text, sender included.
			if err := h.file.Replace(msg.SVGText); err != nil {
				logger.Error("failed to apply update", "error", err)
			}
		default:
			logger.Warn("unexpected message from core", "type", msg.Type)
		}
	}
	logger.Info("core disconnected")
}

// answerReady queues a load of the current text for c.
func (h *Handler) answerReady(c *client) error {
	text, err := h.file.Text()
	if err != nil {
		return err
	}
	if !c.enqueue(svginspect.Message{Type: svginspect.MsgLoad, SVGText: text}) {
		return errSlowCore
	}
	return nil
}

func (h *Handler) serveText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	text, err := h.file.Text()
	if err != nil {
		http.Error(w, "document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(text))
}

func (h *Handler) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Handler) broadcast(msg svginspect.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(msg) {
			// Too slow to keep FIFO without unbounded memory; drop it.
			h.logger.Warn("dropping slow core", "remote", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			c.close()
		}
	}
}

func (h *Handler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// client is one connected core. Only writeLoop writes to conn.
type client struct {
	conn *websocket.Conn
	send chan svginspect.Message

	once sync.Once
	done chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan svginspect.Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue reports false when the send buffer is full.
func (c *client) enqueue(msg svginspect.Message) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writeLoop(logger *slog.Logger) {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Warn("websocket write failed", "error", err)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
