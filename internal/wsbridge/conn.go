package wsbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dannyswat/svginspect"
)

// Conn is the core side of the bridge. It implements svginspect.Host.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	wmu  sync.Mutex
	in   chan svginspect.Message
	once sync.Once
	done chan struct{}
}

// Dial connects to a Handler at url (ws:// or wss://).
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Conn{
		ws:     ws,
		logger: logger.With("host", url),
		in:     make(chan svginspect.Message),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Send implements svginspect.Host.
func (c *Conn) Send(msg svginspect.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// Receive delivers messages from the host in arrival order. It is closed
// when the connection ends.
func (c *Conn) Receive() <-chan svginspect.Message { return c.in }

// Close says goodbye to the host and closes the connection.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.done) })
	c.wmu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	return errors.Join(err, c.ws.Close())
}

func (c *Conn) readLoop() {
	defer close(c.in)
	for {
		var msg svginspect.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		select {
		case c.in <- msg:
		case <-c.done:
			return
		}
	}
}
