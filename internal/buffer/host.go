package buffer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dannyswat/svginspect"
)

// Host adapts a File to the three-message boundary. The core sends ready
// and updateSvg through Send and receives load messages from Messages.
//
// Send never blocks on the receiving side, so a core may call it from the
// same goroutine that drains Messages.
type Host struct {
	file   *File
	logger *slog.Logger

	mu    sync.Mutex
	queue []svginspect.Message
	wake  chan struct{}
	out   chan svginspect.Message
}

func NewHost(file *File, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Host{
		file:   file,
		logger: logger,
		wake:   make(chan struct{}, 1),
		out:    make(chan svginspect.Message),
	}
}

// Run watches the file and delivers queued messages until ctx is done.
// Messages is closed when Run returns.
func (h *Host) Run(ctx context.Context) error {
	changes, err := h.file.Watch(ctx)
	if err != nil {
		close(h.out)
		return err
	}
	go func() {
		for text := range changes {
			h.logger.Debug("file changed on disk", "bytes", len(text))
			h.enqueue(svginspect.Message{Type: svginspect.MsgLoad, SVGText: text})
		}
	}()

	defer close(h.out)
	for {
		msg, ok := h.next()
		if !ok {
			select {
			case <-h.wake:
				continue
			case <-ctx.Done():
				return nil
			}
		}
		select {
		case h.out <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// Messages delivers load messages in the order they were produced.
func (h *Host) Messages() <-chan svginspect.Message { return h.out }

// Send implements svginspect.Host.
func (h *Host) Send(msg svginspect.Message) error {
	switch msg.Type {
	case svginspect.MsgReady:
		text, err := h.file.Text()
		if err != nil {
			return err
		}
		h.enqueue(svginspect.Message{Type: svginspect.MsgLoad, SVGText: text})
		return nil
	case svginspect.MsgUpdateSVG:
		return h.file.Replace(msg.SVGText)
	default:
		return fmt.Errorf("%w: %q", svginspect.ErrUnexpectedMessage, msg.Type)
	}
}

func (h *Host) enqueue(msg svginspect.Message) {
	h.mu.Lock()
	h.queue = append(h.queue, msg)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Host) next() (svginspect.Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		return svginspect.Message{}, false
	}
	msg := h.queue[0]
	h.queue = h.queue[1:]
	return msg, true
}
