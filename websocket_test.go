package zeroexorder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivered struct {
	requestID int
	order     RelayOrderPayload
}

// newFeedServer echoes every client request on requests and answers a
// subscribe with one snapshot of two orders followed by one update
func newFeedServer(t *testing.T, requests chan<- feedRequest) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req feedRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			requests <- req
			if req.Type != FeedTypeSubscribe {
				continue
			}

			snapshot, _ := json.Marshal([]*RelayOrderPayload{testPayload(), testPayload()})
			update, _ := json.Marshal(testPayload())
			for _, msg := range []feedMessage{
				{Type: FeedTypeSnapshot, Channel: FeedChannelOrders, RequestID: req.RequestID, Payload: snapshot},
				{Type: "heartbeat", Channel: FeedChannelOrders, RequestID: req.RequestID},
				{Type: FeedTypeUpdate, Channel: "fills", RequestID: req.RequestID, Payload: update},
				{Type: FeedTypeUpdate, Channel: FeedChannelOrders, RequestID: req.RequestID, Payload: update},
			} {
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestOrderFeedSubscribe(t *testing.T) {
	requests := make(chan feedRequest, 4)
	srv := newFeedServer(t, requests)

	orders := make(chan delivered, 8)
	feed := NewOrderFeed(OrderFeedConfig{
		Endpoint: wsURL(srv),
		OnOrder: func(requestID int, order RelayOrderPayload) {
			orders <- delivered{requestID: requestID, order: order}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, feed.Connect(ctx))
	defer feed.Disconnect()
	assert.True(t, feed.IsConnected())

	filter := OrderFeedFilter{MakerTokenAddress: testWETH, TakerTokenAddress: testZRX}
	id, err := feed.Subscribe(filter)
	require.NoError(t, err)
	assert.Equal(t, []int{id}, feed.Subscriptions())

	select {
	case req := <-requests:
		assert.Equal(t, FeedTypeSubscribe, req.Type)
		assert.Equal(t, FeedChannelOrders, req.Channel)
		assert.Equal(t, id, req.RequestID)
		assert.Equal(t, filter, req.Payload)
	case <-ctx.Done():
		t.Fatal("timeout waiting for subscribe")
	}

	for i := 0; i < 3; i++ {
		select {
		case d := <-orders:
			assert.Equal(t, id, d.requestID)
			assert.Equal(t, *testPayload(), d.order)
		case <-ctx.Done():
			t.Fatalf("timeout waiting for order %d", i)
		}
	}

	require.NoError(t, feed.Unsubscribe(id))
	select {
	case req := <-requests:
		assert.Equal(t, FeedTypeUnsubscribe, req.Type)
		assert.Equal(t, id, req.RequestID)
	case <-ctx.Done():
		t.Fatal("timeout waiting for unsubscribe")
	}
	assert.Empty(t, feed.Subscriptions())

	select {
	case d := <-orders:
		t.Fatalf("unexpected order delivered: %+v", d)
	default:
	}
}

func TestOrderFeedNotConnected(t *testing.T) {
	feed := NewOrderFeed(OrderFeedConfig{})
	assert.False(t, feed.IsConnected())

	_, err := feed.Subscribe(OrderFeedFilter{})
	assert.Error(t, err)
	assert.Empty(t, feed.Subscriptions())

	assert.ErrorIs(t, feed.Unsubscribe(7), ErrInvalidParam)
	assert.NoError(t, feed.Disconnect())
}

func TestOrderFeedDisconnect(t *testing.T) {
	srv := newFeedServer(t, make(chan feedRequest, 4))

	disconnected := make(chan struct{}, 1)
	feed := NewOrderFeed(OrderFeedConfig{
		Endpoint:     wsURL(srv),
		OnDisconnect: func() { disconnected <- struct{}{} },
	})

	require.NoError(t, feed.Connect(context.Background()))
	require.NoError(t, feed.Disconnect())
	assert.False(t, feed.IsConnected())

	select {
	case <-disconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("OnDisconnect not called")
	}

	_, err := feed.Subscribe(OrderFeedFilter{})
	assert.Error(t, err)
}

func TestOrderFeedMalformedMessage(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	errs := make(chan error, 4)
	feed := NewOrderFeed(OrderFeedConfig{
		Endpoint: wsURL(srv),
		OnError:  func(err error) { errs <- err },
	})
	require.NoError(t, feed.Connect(context.Background()))
	defer feed.Disconnect()

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "malformed feed message")
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestOrderFeedConnectFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	feed := NewOrderFeed(OrderFeedConfig{Endpoint: url})
	assert.Error(t, feed.Connect(context.Background()))
	assert.False(t, feed.IsConnected())
}

func TestOrderFeedReconnectResubscribes(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns atomic.Int32
	requests := make(chan feedRequest, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		for {
			var req feedRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			requests <- req
			if n == 1 {
				// Drop the first connection right after the subscribe
				return
			}
		}
	}))
	defer srv.Close()

	feed := NewOrderFeed(OrderFeedConfig{
		Endpoint:          wsURL(srv),
		ReconnectInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, feed.Connect(ctx))
	defer feed.Disconnect()

	filter := OrderFeedFilter{MakerTokenAddress: testWETH}
	id, err := feed.Subscribe(filter)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case req := <-requests:
			assert.Equal(t, FeedTypeSubscribe, req.Type)
			assert.Equal(t, id, req.RequestID)
			assert.Equal(t, filter, req.Payload)
		case <-ctx.Done():
			t.Fatalf("timeout waiting for subscribe %d", i)
		}
	}

	assert.Equal(t, int32(2), conns.Load())
	assert.Equal(t, []int{id}, feed.Subscriptions())
	assert.Eventually(t, feed.IsConnected, 5*time.Second, 10*time.Millisecond)
}

func TestOrderFeedMaxReconnectAttempts(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if conns.Add(1) > 1 {
			http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	errs := make(chan error, 16)
	feed := NewOrderFeed(OrderFeedConfig{
		Endpoint:             wsURL(srv),
		ReconnectInterval:    10 * time.Millisecond,
		MaxReconnectAttempts: 2,
		OnError:              func(err error) { errs <- err },
	})
	require.NoError(t, feed.Connect(context.Background()))
	defer feed.Disconnect()

	var failed int
	timeout := time.After(5 * time.Second)
	for {
		select {
		case err := <-errs:
			switch {
			case strings.Contains(err.Error(), "max reconnect attempts"):
				assert.Equal(t, 2, failed)
				assert.Equal(t, int32(3), conns.Load())
				assert.False(t, feed.IsConnected())
				return
			case strings.Contains(err.Error(), "reconnect attempt"):
				failed++
			}
		case <-timeout:
			t.Fatal("max reconnect attempts not reported")
		}
	}
}
