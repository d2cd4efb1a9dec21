// Package execution is the JSON-RPC client for the execution collaborator.
// Retries, timeouts, rate limiting and the transport circuit breaker all
// live here; the trading core only sees the outcome.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"filippo.io/edwards25519"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"solana-autotrader/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRatePerSec  = 5.0
	DefaultBurst       = 5

	methodExecuteSwap = "executeSwap"
	amountPlaces      = 9
	signatureLen      = 64
)

var (
	// ErrInvalidWallet is returned for a wallet that is not a base58 ed25519 public key.
	ErrInvalidWallet = errors.New("execution: invalid wallet public key")
	// ErrInvalidSignature is returned by ValidateSignature for malformed signatures.
	ErrInvalidSignature = errors.New("execution: invalid transaction signature")
	// ErrInvalidRequest is returned for requests that cannot be sent.
	ErrInvalidRequest = errors.New("execution: invalid request")
)

// Client implements controller.Executor over HTTP JSON-RPC 2.0.
type Client struct {
	endpoint    string
	wallet      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	slippageBps float64
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	logger      zerolog.Logger
	requestID   atomic.Uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimit limits requests per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMaxSlippage sets the slippage bound sent with every swap.
func WithMaxSlippage(bps float64) ClientOption {
	return func(c *Client) {
		c.slippageBps = bps
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates an execution client trading from wallet.
func NewClient(endpoint, wallet string, opts ...ClientOption) (*Client, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:    endpoint,
		wallet:      wallet,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		slippageBps: domain.DefaultAdaptiveConfig().MaxSlippageBps,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRatePerSec), DefaultBurst),
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "execution").Logger()
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "execution",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections from the collaborator mean the transport works.
		IsSuccessful: func(err error) bool {
			var rpcErr *rpcError
			return err == nil || errors.As(err, &rpcErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("transport breaker state change")
		},
	})
	return c, nil
}

// ValidateWallet checks that wallet is a base58 encoded ed25519 public key.
func ValidateWallet(wallet string) error {
	raw, err := base58.Decode(wallet)
	if err != nil || len(raw) != 32 {
		return fmt.Errorf("%w: %q", ErrInvalidWallet, wallet)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: not on curve", ErrInvalidWallet)
	}
	return nil
}

// ValidateSignature checks that sig is a base58 encoded 64-byte signature.
func ValidateSignature(sig string) error {
	raw, err := base58.Decode(sig)
	if err != nil || len(raw) != signatureLen {
		return fmt.Errorf("%w: %q", ErrInvalidSignature, sig)
	}
	return nil
}

// Execute submits one swap. A reply with success=false is returned as a
// result, not an error; transport and protocol failures are errors. A
// filled swap with a malformed signature is still returned as filled.
func (c *Client) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	if req.Amount <= 0 || !req.Side.Valid() {
		return domain.ExecutionResult{}, fmt.Errorf("%w: side %q amount %v", ErrInvalidRequest, req.Side, req.Amount)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("rate limit: %w", err)
	}

	params := swapParams{
		RequestID:   uuid.NewString(),
		Wallet:      c.wallet,
		AgentID:     req.AgentID,
		StrategyID:  req.StrategyID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Amount:      decimal.NewFromFloat(req.Amount).Round(amountPlaces),
		MaxSlippage: c.slippageBps,
		Conditions:  req.Conditions,
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		var res swapResult
		if err := c.call(ctx, methodExecuteSwap, []any{params}, &res); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("execute swap: %w", err)
	}
	res := out.(swapResult)

	result := domain.ExecutionResult{
		Success:   res.Success,
		Signature: res.Signature,
		Error:     res.Error,
	}
	if res.EntryPrice.Valid {
		result.EntryPrice = res.EntryPrice.Decimal.InexactFloat64()
	}
	if res.ExitPrice.Valid {
		exit := res.ExitPrice.Decimal.InexactFloat64()
		result.ExitPrice = &exit
	}
	if result.Success {
		if err := ValidateSignature(result.Signature); err != nil {
			c.logger.Warn().Err(err).Str("request_id", params.RequestID).Msg("filled swap has malformed signature")
		}
	}

	c.logger.Debug().
		Str("request_id", params.RequestID).
		Bool("success", result.Success).
		Dur("took", time.Since(start)).
		Msg("swap executed")
	return result, nil
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type swapParams struct {
	RequestID   string                  `json:"request_id"`
	Wallet      string                  `json:"wallet"`
	AgentID     string                  `json:"agent_id"`
	StrategyID  string                  `json:"strategy_id"`
	Symbol      string                  `json:"symbol"`
	Side        domain.Side             `json:"side"`
	Amount      decimal.Decimal         `json:"amount"`
	MaxSlippage float64                 `json:"max_slippage_bps"`
	Conditions  domain.MarketConditions `json:"conditions"`
}

type swapResult struct {
	Success    bool                `json:"success"`
	Signature  string              `json:"signature"`
	EntryPrice decimal.NullDecimal `json:"entry_price"`
	ExitPrice  decimal.NullDecimal `json:"exit_price"`
	Error      string              `json:"error"`
}

// call performs a JSON-RPC call with retries and exponential backoff.
// The request id inside params stays fixed across retries so the
// collaborator can deduplicate.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug().Err(lastErr).Int("attempt", attempt).Dur("delay", delay).Msg("retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}
		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
