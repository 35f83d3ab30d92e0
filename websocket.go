package zeroexorder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultWSEndpoint is the relay websocket endpoint
	DefaultWSEndpoint = "ws://localhost:3000/ws"

	// PingInterval is how often a keepalive ping is sent
	PingInterval = 30 * time.Second

	// Reconnect settings
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
)

// Feed message types
const (
	FeedTypeSubscribe   = "subscribe"
	FeedTypeUnsubscribe = "unsubscribe"
	FeedTypeUpdate      = "update"
	FeedTypeSnapshot    = "snapshot"
	FeedChannelOrders   = "orders"
)

// OrderFeedFilter restricts a subscription to a token pair. Empty fields match any token.
type OrderFeedFilter struct {
	MakerTokenAddress string `json:"makerTokenAddress,omitempty"`
	TakerTokenAddress string `json:"takerTokenAddress,omitempty"`
}

type feedRequest struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	RequestID int             `json:"requestId"`
	Payload   OrderFeedFilter `json:"payload"`
}

type feedMessage struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	RequestID int             `json:"requestId"`
	Payload   json.RawMessage `json:"payload"`
}

// OrderFeedConfig holds configuration for the relay order feed
type OrderFeedConfig struct {
	Endpoint             string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	PingInterval         time.Duration
	OnOrder              func(requestID int, order RelayOrderPayload)
	OnError              func(err error)
	OnConnect            func()
	OnDisconnect         func()
	Logger               *zap.Logger
}

// OrderFeed streams orders broadcast by the relay over a websocket
type OrderFeed struct {
	config OrderFeedConfig
	logger *zap.Logger

	mu          sync.RWMutex
	conn        *websocket.Conn
	isConnected bool
	closed      bool
	parent      context.Context
	cancel      context.CancelFunc

	writeMu sync.Mutex

	subMu         sync.RWMutex
	nextRequestID int
	subscriptions map[int]feedRequest
}

// NewOrderFeed creates a new relay order feed
func NewOrderFeed(config OrderFeedConfig) *OrderFeed {
	if config.Endpoint == "" {
		config.Endpoint = DefaultWSEndpoint
	}
	if config.ReconnectInterval == 0 {
		config.ReconnectInterval = DefaultReconnectInterval
	}
	if config.MaxReconnectAttempts == 0 {
		config.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if config.PingInterval == 0 {
		config.PingInterval = PingInterval
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &OrderFeed{
		config:        config,
		logger:        config.Logger,
		subscriptions: make(map[int]feedRequest),
	}
}

// Connect establishes the websocket connection. ctx bounds the lifetime of
// the feed including reconnects.
func (f *OrderFeed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isConnected {
		return nil
	}
	f.closed = false
	f.parent = ctx
	return f.dial(ctx)
}

// dial must be called with mu held
func (f *OrderFeed) dial(ctx context.Context) error {
	connCtx, cancel := context.WithCancel(ctx)

	conn, _, err := websocket.DefaultDialer.DialContext(connCtx, f.config.Endpoint, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to connect to order feed: %w", err)
	}

	f.conn = conn
	f.cancel = cancel
	f.isConnected = true

	go f.pingLoop(connCtx, conn)
	go f.readLoop(connCtx, conn)

	f.logger.Sugar().Infow("Order feed connected", "endpoint", f.config.Endpoint)
	if f.config.OnConnect != nil {
		go f.config.OnConnect()
	}
	return nil
}

// Disconnect closes the connection and stops reconnecting
func (f *OrderFeed) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if !f.isConnected {
		return nil
	}
	f.isConnected = false

	if f.cancel != nil {
		f.cancel()
	}

	var err error
	if f.conn != nil {
		err = f.conn.Close()
		f.conn = nil
	}

	if f.config.OnDisconnect != nil {
		go f.config.OnDisconnect()
	}
	return err
}

// IsConnected returns the current connection status
func (f *OrderFeed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isConnected
}

// Subscribe subscribes to new orders matching filter and returns the request ID
// that tags the updates delivered to OnOrder
func (f *OrderFeed) Subscribe(filter OrderFeedFilter) (int, error) {
	f.subMu.Lock()
	f.nextRequestID++
	req := feedRequest{
		Type:      FeedTypeSubscribe,
		Channel:   FeedChannelOrders,
		RequestID: f.nextRequestID,
		Payload:   filter,
	}
	f.subMu.Unlock()

	if err := f.send(req); err != nil {
		return 0, err
	}

	f.subMu.Lock()
	f.subscriptions[req.RequestID] = req
	f.subMu.Unlock()

	return req.RequestID, nil
}

// Unsubscribe cancels the subscription with requestID
func (f *OrderFeed) Unsubscribe(requestID int) error {
	f.subMu.RLock()
	req, ok := f.subscriptions[requestID]
	f.subMu.RUnlock()
	if !ok {
		return &InvalidParamError{Message: fmt.Sprintf("unknown subscription %d", requestID)}
	}

	req.Type = FeedTypeUnsubscribe
	if err := f.send(req); err != nil {
		return err
	}

	f.subMu.Lock()
	delete(f.subscriptions, requestID)
	f.subMu.Unlock()
	return nil
}

// Subscriptions returns the request IDs of active subscriptions
func (f *OrderFeed) Subscriptions() []int {
	f.subMu.RLock()
	defer f.subMu.RUnlock()

	ids := make([]int, 0, len(f.subscriptions))
	for id := range f.subscriptions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// send writes one JSON message, writes are serialized
func (f *OrderFeed) send(msg interface{}) error {
	f.mu.RLock()
	conn := f.conn
	connected := f.isConnected
	f.mu.RUnlock()

	if !connected || conn == nil {
		return fmt.Errorf("order feed not connected")
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (f *OrderFeed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(f.config.PingInterval / 2)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				f.reportError(fmt.Errorf("ping failed: %w", err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (f *OrderFeed) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.reportError(fmt.Errorf("read error: %w", err))
			}
			f.handleDisconnect(conn)
			return
		}
		f.handleMessage(data)
	}
}

func (f *OrderFeed) handleMessage(data []byte) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		f.reportError(fmt.Errorf("malformed feed message: %w", err))
		return
	}
	if msg.Channel != FeedChannelOrders {
		return
	}

	switch msg.Type {
	case FeedTypeUpdate:
		var order RelayOrderPayload
		if err := json.Unmarshal(msg.Payload, &order); err != nil {
			f.reportError(fmt.Errorf("malformed order update: %w", err))
			return
		}
		f.deliver(msg.RequestID, order)
	case FeedTypeSnapshot:
		var orders []RelayOrderPayload
		if err := json.Unmarshal(msg.Payload, &orders); err != nil {
			f.reportError(fmt.Errorf("malformed order snapshot: %w", err))
			return
		}
		for _, order := range orders {
			f.deliver(msg.RequestID, order)
		}
	default:
		f.logger.Debug("Ignoring feed message", zap.String("type", msg.Type))
	}
}

func (f *OrderFeed) deliver(requestID int, order RelayOrderPayload) {
	if f.config.OnOrder != nil {
		f.config.OnOrder(requestID, order)
	}
}

func (f *OrderFeed) reportError(err error) {
	f.logger.Warn("Order feed error", zap.Error(err))
	if f.config.OnError != nil {
		f.config.OnError(err)
	}
}

// handleDisconnect tears down a dropped connection and starts reconnecting
func (f *OrderFeed) handleDisconnect(conn *websocket.Conn) {
	f.mu.Lock()
	if f.conn != conn {
		f.mu.Unlock()
		return
	}
	f.isConnected = false
	f.conn = nil
	if f.cancel != nil {
		f.cancel()
	}
	parent := f.parent
	f.mu.Unlock()

	_ = conn.Close()
	if f.config.OnDisconnect != nil {
		f.config.OnDisconnect()
	}

	go f.attemptReconnect(parent)
}

func (f *OrderFeed) attemptReconnect(parent context.Context) {
	for attempt := 1; attempt <= f.config.MaxReconnectAttempts; attempt++ {
		select {
		case <-parent.Done():
			return
		case <-time.After(f.config.ReconnectInterval):
		}

		f.mu.Lock()
		if f.closed || f.isConnected {
			f.mu.Unlock()
			return
		}
		err := f.dial(parent)
		f.mu.Unlock()

		if err != nil {
			f.reportError(fmt.Errorf("reconnect attempt %d failed: %w", attempt, err))
			continue
		}

		f.resubscribe()
		return
	}

	f.reportError(fmt.Errorf("max reconnect attempts (%d) reached", f.config.MaxReconnectAttempts))
}

// resubscribe replays all tracked subscriptions
func (f *OrderFeed) resubscribe() {
	f.subMu.RLock()
	reqs := make([]feedRequest, 0, len(f.subscriptions))
	for _, req := range f.subscriptions {
		reqs = append(reqs, req)
	}
	f.subMu.RUnlock()

	for _, req := range reqs {
		if err := f.send(req); err != nil {
			f.reportError(fmt.Errorf("resubscribe failed: %w", err))
		}
	}
}
