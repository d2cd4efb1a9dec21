// Package market streams normalized market snapshots and opportunities
// from the market collaborator over a websocket.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/idhash"
)

var (
	// ErrNoSnapshot is returned before the first snapshot arrives.
	ErrNoSnapshot = errors.New("market: no snapshot received")
	// ErrStaleSnapshot is returned when the latest snapshot is older than MaxSnapshotAge.
	ErrStaleSnapshot = errors.New("market: snapshot is stale")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("market: feed closed")
)

// Stream method names.
const (
	methodSubscribe   = "subscribe"
	methodSnapshot    = "snapshot"
	methodOpportunity = "opportunity"
)

// FeedConfig configures FeedClient behavior.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// MaxSnapshotAge makes Snapshot fail when no update arrived for this long.
	// Zero disables the check.
	MaxSnapshotAge time.Duration
	// OpportunityTTL drops opportunities not refreshed for this long.
	OpportunityTTL time.Duration
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxSnapshotAge:    2 * time.Minute,
		OpportunityTTL:    5 * time.Minute,
	}
}

// Options configures a FeedClient.
type Options struct {
	Config *FeedConfig
	Symbol string
	Now    func() time.Time
	Logger *zerolog.Logger
	// OnOpportunity is called from the read loop for every new or refreshed
	// opportunity. It must not block.
	OnOpportunity func(domain.Opportunity)
}

// FeedClient keeps the latest snapshot and the open opportunities for one
// symbol. Snapshot and Opportunities never touch the network.
type FeedClient struct {
	endpoint string
	symbol   string
	config   FeedConfig
	now      func() time.Time
	logger   zerolog.Logger
	onOpp    func(domain.Opportunity)

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	stateMu  sync.RWMutex
	snapshot *domain.MarketSnapshot
	received time.Time
	opps     map[string]domain.Opportunity

	done         chan struct{}
	wg           sync.WaitGroup
	reconnecting atomic.Bool
}

// NewFeedClient connects to endpoint and subscribes to the symbol's stream.
func NewFeedClient(ctx context.Context, endpoint string, opts Options) (*FeedClient, error) {
	cfg := DefaultFeedConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &FeedClient{
		endpoint: endpoint,
		symbol:   opts.Symbol,
		config:   cfg,
		now:      now,
		logger:   logger.With().Str("component", "market_feed").Logger(),
		onOpp:    opts.OnOpportunity,
		opps:     make(map[string]domain.Opportunity),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if err := c.subscribe(); err != nil {
		c.closeConn()
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *FeedClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *FeedClient) subscribe() error {
	req := streamRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  methodSubscribe,
		Params:  subscribeParams{Symbol: c.symbol, Channels: []string{methodSnapshot, methodOpportunity}},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Snapshot returns the latest snapshot.
func (c *FeedClient) Snapshot(ctx context.Context) (domain.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.MarketSnapshot{}, err
	}
	if c.closed.Load() {
		return domain.MarketSnapshot{}, ErrClosed
	}

	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.snapshot == nil {
		return domain.MarketSnapshot{}, ErrNoSnapshot
	}
	if age := c.now().Sub(c.received); c.config.MaxSnapshotAge > 0 && age > c.config.MaxSnapshotAge {
		return domain.MarketSnapshot{}, fmt.Errorf("%w: last update %s ago", ErrStaleSnapshot, age.Round(time.Second))
	}
	return *c.snapshot, nil
}

// Opportunities returns the unexpired opportunities, oldest first.
func (c *FeedClient) Opportunities(ctx context.Context) ([]domain.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := c.now()

	c.stateMu.Lock()
	out := make([]domain.Opportunity, 0, len(c.opps))
	for id, o := range c.opps {
		if c.config.OpportunityTTL > 0 && now.Sub(o.ObservedAt) > c.config.OpportunityTTL {
			delete(c.opps, id)
			continue
		}
		out = append(out, o)
	}
	c.stateMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ObservedAt.Equal(out[j].ObservedAt) {
			return out[i].ObservedAt.Before(out[j].ObservedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close closes the websocket connection and waits for the loops to exit.
func (c *FeedClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *FeedClient) closeConn() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}

// readLoop reads messages and reconnects with exponential backoff on error.
func (c *FeedClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("feed read failed")
			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect replaces the connection and resubscribes.
func (c *FeedClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.closeConn()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("feed reconnect failed")
		return
	}
	if err := c.subscribe(); err != nil {
		c.logger.Warn().Err(err).Msg("feed resubscribe failed")
		return
	}
	c.logger.Info().Str("endpoint", c.endpoint).Msg("feed reconnected")
}

func (c *FeedClient) handleMessage(message []byte) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug().Err(err).Msg("undecodable feed message")
		return
	}
	if msg.Error != nil {
		c.logger.Warn().Int("code", msg.Error.Code).Str("message", msg.Error.Message).Msg("feed error response")
		return
	}

	switch msg.Method {
	case methodSnapshot:
		var s domain.MarketSnapshot
		if err := json.Unmarshal(msg.Params, &s); err != nil {
			c.logger.Debug().Err(err).Msg("bad snapshot payload")
			return
		}
		if c.symbol != "" && s.Symbol != "" && s.Symbol != c.symbol {
			return
		}
		c.stateMu.Lock()
		c.snapshot = &s
		c.received = c.now()
		c.stateMu.Unlock()

	case methodOpportunity:
		var o domain.Opportunity
		if err := json.Unmarshal(msg.Params, &o); err != nil {
			c.logger.Debug().Err(err).Msg("bad opportunity payload")
			return
		}
		if o.ID == "" {
			if o.Mint == "" {
				return
			}
			o.ID = idhash.ComputeOpportunityID(o.Mint, o.PoolCreated)
		}
		if o.ObservedAt.IsZero() {
			o.ObservedAt = c.now()
		}
		c.stateMu.Lock()
		c.opps[o.ID] = o
		c.stateMu.Unlock()

		if c.onOpp != nil {
			c.onOpp(o)
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *FeedClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.logger.Debug().Err(err).Msg("ping failed")
				}
			}
			c.connMu.Unlock()
		}
	}
}

type streamRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  subscribeParams `json:"params"`
}

type subscribeParams struct {
	Symbol   string   `json:"symbol,omitempty"`
	Channels []string `json:"channels"`
}

type streamMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Error   *streamError    `json:"error,omitempty"`
}

type streamError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
