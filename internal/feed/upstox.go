package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"nifty-paper-trader/internal/chain"
	"nifty-paper-trader/internal/errors"
	"nifty-paper-trader/internal/models"
)

// UpstoxConfig holds configuration for the Upstox-style chain endpoint.
type UpstoxConfig struct {
	BaseURL         string
	AccessToken     string
	InstrumentKey   string
	StrikeStep      int
	StrikeWindow    int
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// UpstoxClient fetches option-chain snapshots from an Upstox-style HTTP
// endpoint. One fetch returns a single JSON frame holding spot, ATM strike,
// the strike window and per-symbol quotes; partial frames are rejected
// wholesale so the caller never sees a half-merged snapshot.
type UpstoxClient struct {
	cfg        UpstoxConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewUpstoxClient creates a feed client.
func NewUpstoxClient(cfg UpstoxConfig, logger zerolog.Logger) *UpstoxClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UpstoxClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// chainResponse is the wire shape of the option-chain endpoint.
type chainResponse struct {
	Status  string                   `json:"status"`
	Message string                   `json:"message"`
	Spot    float64                  `json:"spot"`
	ATM     int                      `json:"atm"`
	Strikes []int                    `json:"strikes"`
	Data    map[string]quoteResponse `json:"data"`
}

type quoteResponse struct {
	LastPrice    float64       `json:"last_price"`
	OpenInterest int64         `json:"oi"`
	Volume       int64         `json:"volume"`
	NetChange    float64       `json:"net_change"`
	Depth        depthResponse `json:"depth"`
}

type depthResponse struct {
	Buy  []depthLevelResponse `json:"buy"`
	Sell []depthLevelResponse `json:"sell"`
}

type depthLevelResponse struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// Fetch retrieves one snapshot, retrying transient transport failures with
// exponential backoff until the configured elapsed budget is spent. Auth
// failures are not retried.
func (c *UpstoxClient) Fetch(ctx context.Context) (*models.QuoteSnapshot, error) {
	op := func() (*models.QuoteSnapshot, error) {
		return c.fetchOnce(ctx)
	}

	maxElapsed := c.cfg.RetryMaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 8 * time.Second
	}

	return backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
}

func (c *UpstoxClient) fetchOnce(ctx context.Context) (*models.QuoteSnapshot, error) {
	endpoint := fmt.Sprintf("%s/option/chain?instrument_key=%s",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.InstrumentKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(errors.NewFeedError(endpoint, "building request", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFeedError(endpoint, "request failed", errors.Wrap(errors.ErrFeedUnavailable, err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.NewFeedError(endpoint, "reading response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(errors.NewFeedError(endpoint, "authentication rejected", errors.ErrFeedUnavailable))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.NewFeedError(endpoint, fmt.Sprintf("status %d", resp.StatusCode), errors.ErrFeedUnavailable)
	}

	snapshot, err := c.parseSnapshot(body)
	if err != nil {
		return nil, errors.NewFeedError(endpoint, "parsing response", err)
	}
	return snapshot, nil
}

// parseSnapshot converts a wire frame into an immutable snapshot. A frame
// without quote data is a fetch failure, not an empty chain.
func (c *UpstoxClient) parseSnapshot(body []byte) (*models.QuoteSnapshot, error) {
	var wire chainResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	if wire.Data == nil {
		return nil, errors.Wrap(errors.ErrFeedUnavailable, "response has no data field")
	}
	if wire.Spot <= 0 {
		return nil, errors.Wrap(errors.ErrFeedUnavailable, "response has no spot price")
	}

	atm := wire.ATM
	if atm == 0 {
		atm = chain.ATMStrike(wire.Spot, c.cfg.StrikeStep)
	}

	strikes := wire.Strikes
	if len(strikes) == 0 {
		strikes = chain.StrikeWindow(atm, c.cfg.StrikeStep, c.cfg.StrikeWindow)
	} else {
		strikes = append([]int(nil), strikes...)
		sort.Ints(strikes)
	}

	quotes := make(map[string]models.OptionQuote, len(wire.Data))
	for symbol, q := range wire.Data {
		strike, right, err := chain.ParseSymbol(symbol)
		if err != nil {
			// Non-option keys (e.g. the underlying index quote) are ignored.
			continue
		}
		quotes[symbol] = models.OptionQuote{
			Symbol:       symbol,
			Strike:       strike,
			Right:        right,
			LastPrice:    q.LastPrice,
			OpenInterest: q.OpenInterest,
			Volume:       q.Volume,
			NetChange:    q.NetChange,
			BidDepth:     convertDepth(q.Depth.Buy),
			AskDepth:     convertDepth(q.Depth.Sell),
		}
	}

	return &models.QuoteSnapshot{
		Spot:      wire.Spot,
		ATMStrike: atm,
		Strikes:   strikes,
		Quotes:    quotes,
		FetchedAt: time.Now(),
	}, nil
}

func convertDepth(levels []depthLevelResponse) []models.DepthLevel {
	if len(levels) == 0 {
		return nil
	}
	out := make([]models.DepthLevel, len(levels))
	for i, l := range levels {
		out[i] = models.DepthLevel{Price: l.Price, Quantity: l.Quantity}
	}
	return out
}

var _ Source = (*UpstoxClient)(nil)
