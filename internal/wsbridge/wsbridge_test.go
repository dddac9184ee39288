package wsbridge

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyswat/svginspect"
	"github.com/dannyswat/svginspect/internal/buffer"
)

const waitTimeout = 5 * time.Second

func setup(t *testing.T, content string) (*buffer.File, *Handler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drawing.svg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	file, err := buffer.Open(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHandler(file, nil)
	require.NoError(t, h.Start(ctx))

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return file, h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	c, err := Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func receive(t *testing.T, c *Conn) svginspect.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Receive():
		require.True(t, ok, "connection closed")
		return msg
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for message")
		return svginspect.Message{}
	}
}

func TestReadyAnsweredWithLoad(t *testing.T) {
	_, _, url := setup(t, `<svg/>`)
	c := dial(t, url)

	require.NoError(t, c.Send(svginspect.Message{Type: svginspect.MsgReady}))
	msg := receive(t, c)
	assert.Equal(t, svginspect.MsgLoad, msg.Type)
	assert.Equal(t, `<svg/>`, msg.SVGText)
}

func TestUpdateIsBroadcast(t *testing.T) {
	file, h, url := setup(t, `<svg/>`)
	a := dial(t, url)
	b := dial(t, url)

	for _, c := range []*Conn{a, b} {
		require.NoError(t, c.Send(svginspect.Message{Type: svginspect.MsgReady}))
		receive(t, c)
	}
	assert.Equal(t, 2, h.Clients())

	require.NoError(t, a.Send(svginspect.Message{Type: svginspect.MsgUpdateSVG, SVGText: `<svg><rect/></svg>`}))
	for _, c := range []*Conn{a, b} {
		msg := receive(t, c)
		assert.Equal(t, svginspect.MsgLoad, msg.Type)
		assert.Equal(t, `<svg><rect/></svg>`, msg.SVGText)
	}

	text, err := file.Text()
	require.NoError(t, err)
	assert.Equal(t, `<svg><rect/></svg>`, text)
}

func TestExternalEditIsBroadcast(t *testing.T) {
	file, _, url := setup(t, `<svg/>`)
	c := dial(t, url)
	require.NoError(t, c.Send(svginspect.Message{Type: svginspect.MsgReady}))
	receive(t, c)

	require.NoError(t, file.Replace(`<svg id="x"/>`))
	assert.Equal(t, `<svg id="x"/>`, receive(t, c).SVGText)
}

func TestSessionOverBridge(t *testing.T) {
	_, _, url := setup(t, `<svg><rect id="a"/></svg>`)
	c := dial(t, url)

	s := svginspect.NewSession(c)
	require.NoError(t, s.Start())
	require.NoError(t, s.HandleMessage(receive(t, c)))
	require.NotNil(t, s.Root())

	s.Select(s.Root().ChildAt(0), false)
	require.NoError(t, s.SetAttribute("fill", "red"))
	require.True(t, s.Pending())

	require.NoError(t, s.HandleMessage(receive(t, c)))
	assert.False(t, s.Pending())
	assert.Equal(t, `<svg><rect id="a" fill="red"/></svg>`, s.Text())
}

func TestPlainGetServesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.svg")
	require.NoError(t, os.WriteFile(path, []byte(`<svg/>`), 0644))
	file, err := buffer.Open(path, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(file, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `<svg/>`, string(body))

	resp2, err := http.Post(srv.URL, "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestReadyFromSlowCore(t *testing.T) {
	_, h, _ := setup(t, "<svg/>")

	c := newClient(nil)
	require.NoError(t, h.answerReady(c))
	require.Len(t, c.send, 1)
	msg := <-c.send
	assert.Equal(t, svginspect.MsgLoad, msg.Type)
	assert.Equal(t, "<svg/>", msg.SVGText)

	for range sendBuffer {
		require.True(t, c.enqueue(svginspect.Message{Type: svginspect.MsgLoad}))
	}
	assert.ErrorIs(t, h.answerReady(c), errSlowCore)
	assert.Len(t, c.send, sendBuffer)
}
