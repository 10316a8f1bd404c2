package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agingrasc/design3-vision/internal/message"
	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/pipeline"
	"github.com/agingrasc/design3-vision/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// baseStation accepts sockets and forwards every received message.
type baseStation struct {
	reject   atomic.Bool
	received chan message.Message

	// pingAfterRead makes the station ping the client after each message
	// and report the outcome on pings.
	pingAfterRead atomic.Bool
	pings         chan error
	// closeAfterRead makes the station close the socket after one message.
	closeAfterRead atomic.Bool
	accepted       atomic.Int32
}

func newBaseStation(t *testing.T) (*baseStation, string) {
	t.Helper()
	bs := &baseStation{received: make(chan message.Message, 16), pings: make(chan error, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bs.reject.Load() {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		bs.accepted.Add(1)
		for {
			var msg message.Message
			if err := wsjson.Read(r.Context(), conn, &msg); err != nil {
				return
			}
			bs.received <- msg
			if bs.pingAfterRead.Load() {
				// the pong is consumed by the Read of the next iteration
				go func() {
					ctx, cancel := context.WithTimeout(r.Context(), time.Second)
					defer cancel()
					bs.pings <- conn.Ping(ctx)
				}()
			}
			if bs.closeAfterRead.Load() {
				_ = conn.Close(websocket.StatusGoingAway, "restarting")
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return bs, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (bs *baseStation) next(t *testing.T) message.Message {
	t.Helper()
	select {
	case msg := <-bs.received:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return message.Message{}
	}
}

func TestClient_PublishFrame(t *testing.T) {
	t.Parallel()
	bs, url := newBaseStation(t)
	c := NewClient(url, message.Assembler{})
	t.Cleanup(func() { _ = c.Close() })

	r := &pipeline.Result{Seq: 1, Image: testutil.BlankFrame()}
	require.NoError(t, c.PublishFrame(context.Background(), r))
	assert.True(t, c.Connected())

	msg := bs.next(t)
	assert.Equal(t, message.Header, msg.Headers)
	assert.Equal(t, "640", msg.Data.Image.SentDimension.Width)
	assert.NotEmpty(t, msg.Data.Image.Data)
}

func TestClient_Redial(t *testing.T) {
	t.Parallel()
	bs, url := newBaseStation(t)
	bs.reject.Store(true)
	c := NewClient(url, message.Assembler{}, WithRedialDelay(time.Hour))
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	err := c.Send(ctx, map[string]string{"headers": "ping"})
	require.Error(t, err)
	assert.False(t, c.Connected())

	// the next attempt waits for the redial delay
	bs.reject.Store(false)
	assert.ErrorIs(t, c.Send(ctx, map[string]string{"headers": "ping"}), ErrNotConnected)

	c.redialDelay = 0
	require.NoError(t, c.Send(ctx, map[string]string{"headers": "ping"}))
	assert.Equal(t, "ping", bs.next(t).Headers)
}

func TestClient_CloseWithoutConnection(t *testing.T) {
	t.Parallel()
	c := NewClient("ws://127.0.0.1:1", message.Assembler{})
	assert.NoError(t, c.Close())
}

func TestClient_AnswersPings(t *testing.T) {
	t.Parallel()
	bs, url := newBaseStation(t)
	bs.pingAfterRead.Store(true)
	c := NewClient(url, message.Assembler{})
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Send(context.Background(), map[string]string{"headers": "first"}))
	bs.next(t)

	select {
	case err := <-bs.pings:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("ping never completed")
	}
	assert.True(t, c.Connected())
}

func TestClient_RedialsAfterPeerClose(t *testing.T) {
	t.Parallel()
	bs, url := newBaseStation(t)
	bs.closeAfterRead.Store(true)
	c := NewClient(url, message.Assembler{}, WithRedialDelay(0))
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Send(ctx, map[string]string{"headers": "first"}))
	assert.Equal(t, "first", bs.next(t).Headers)

	require.Eventually(t, func() bool { return !c.Connected() }, 3*time.Second, 10*time.Millisecond,
		"close frame from the station is noticed without a write")

	bs.closeAfterRead.Store(false)
	require.NoError(t, c.Send(ctx, map[string]string{"headers": "second"}))
	assert.Equal(t, "second", bs.next(t).Headers)
	assert.Equal(t, int32(2), bs.accepted.Load())
}
