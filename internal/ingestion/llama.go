package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"sui-aptos-lab/internal/domain"
)

// Default DefiLlama endpoints and client configuration.
const (
	DefaultLlamaBaseURL = "https://api.llama.fi"
	DefaultCoinsBaseURL = "https://coins.llama.fi"

	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// llamaTokenIDs maps ecosystems to the coin identifiers DefiLlama's
// price API understands.
var llamaTokenIDs = map[domain.Ecosystem]string{
	domain.EcosystemSui:   "coingecko:sui",
	domain.EcosystemAptos: "coingecko:aptos",
}

// LlamaClient fetches chain and protocol data from the DefiLlama API.
type LlamaClient struct {
	baseURL      string
	coinsBaseURL string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
}

// LlamaOption configures LlamaClient.
type LlamaOption func(*LlamaClient)

// WithBaseURL overrides the main API endpoint.
func WithBaseURL(u string) LlamaOption {
	return func(c *LlamaClient) {
		c.baseURL = u
	}
}

// WithCoinsBaseURL overrides the price API endpoint.
func WithCoinsBaseURL(u string) LlamaOption {
	return func(c *LlamaClient) {
		c.coinsBaseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) LlamaOption {
	return func(c *LlamaClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) LlamaOption {
	return func(c *LlamaClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) LlamaOption {
	return func(c *LlamaClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) LlamaOption {
	return func(c *LlamaClient) {
		c.client = client
	}
}

// NewLlamaClient creates a new DefiLlama HTTP client.
func NewLlamaClient(opts ...LlamaOption) *LlamaClient {
	c := &LlamaClient{
		baseURL:      DefaultLlamaBaseURL,
		coinsBaseURL: DefaultCoinsBaseURL,
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ProtocolSource = (*LlamaClient)(nil)
var _ PriceSource = (*LlamaClient)(nil)

// get performs a GET request with retries and exponential backoff,
// decoding the JSON response into result.
func (c *LlamaClient) get(ctx context.Context, rawURL string, result interface{}) error {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
			// Client errors won't improve on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response from %s: %w", rawURL, err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// llamaChain is one entry of the /v2/chains response.
type llamaChain struct {
	Name string  `json:"name"`
	TVL  float64 `json:"tvl"`
}

// ChainTVLs returns the current chain-level TVL for both ecosystems.
func (c *LlamaClient) ChainTVLs(ctx context.Context) (map[domain.Ecosystem]float64, error) {
	var chains []llamaChain
	if err := c.get(ctx, c.baseURL+"/v2/chains", &chains); err != nil {
		return nil, fmt.Errorf("fetch chains: %w", err)
	}

	tvls := make(map[domain.Ecosystem]float64, 2)
	for _, ch := range chains {
		eco, err := domain.ParseEcosystem(ch.Name)
		if err != nil {
			continue
		}
		tvls[eco] = ch.TVL
	}
	return tvls, nil
}

// llamaProtocol is one entry of the /protocols response.
type llamaProtocol struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Category string   `json:"category"`
	Chains   []string `json:"chains"`
	TVL      *float64 `json:"tvl"`
	Change1d *float64 `json:"change_1d"`
	Change7d *float64 `json:"change_7d"`
	Change1m *float64 `json:"change_1m"`
}

// Protocols returns protocols deployed on the given chain. Multi-chain
// protocols get an even share of their total TVL per chain; protocols
// with zero or missing TVL are skipped.
func (c *LlamaClient) Protocols(ctx context.Context, eco domain.Ecosystem) ([]domain.RawProtocol, error) {
	var all []llamaProtocol
	if err := c.get(ctx, c.baseURL+"/protocols", &all); err != nil {
		return nil, fmt.Errorf("fetch protocols: %w", err)
	}

	chain := string(eco)
	var out []domain.RawProtocol
	for _, p := range all {
		onChain := false
		for _, ch := range p.Chains {
			if ch == chain {
				onChain = true
				break
			}
		}
		if !onChain || p.TVL == nil || *p.TVL <= 0 {
			continue
		}

		allocation := 1.0
		if len(p.Chains) > 1 {
			allocation = 1.0 / float64(len(p.Chains))
		}

		out = append(out, domain.RawProtocol{
			Name:     p.Name,
			Slug:     p.Slug,
			Category: p.Category,
			TVL:      *p.TVL * allocation,
			Change1d: derefOrZero(p.Change1d),
			Change7d: derefOrZero(p.Change7d),
			Change30: derefOrZero(p.Change1m),
		})
	}
	return out, nil
}

func derefOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// llamaHistoricalTVL is one entry of the /v2/historicalChainTvl response.
type llamaHistoricalTVL struct {
	Date int64   `json:"date"` // unix seconds
	TVL  float64 `json:"tvl"`
}

// HistoricalChainTVL returns the chain's daily TVL history expressed as
// price points, with TVL in billions standing in for price. Used as a
// fallback series when token price history is unavailable.
func (c *LlamaClient) HistoricalChainTVL(ctx context.Context, eco domain.Ecosystem) ([]domain.PricePoint, error) {
	var rows []llamaHistoricalTVL
	u := c.baseURL + "/v2/historicalChainTvl/" + url.PathEscape(string(eco))
	if err := c.get(ctx, u, &rows); err != nil {
		return nil, fmt.Errorf("fetch historical chain tvl: %w", err)
	}

	points := make([]domain.PricePoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, domain.PricePoint{
			Ecosystem: eco,
			Date:      time.Unix(row.Date, 0).UTC().Truncate(24 * time.Hour),
			Price:     row.TVL / 1e9,
			MarketCap: row.TVL,
		})
	}
	return points, nil
}

// chartResponse is the /chart response of the price API.
type chartResponse struct {
	Coins map[string]struct {
		Prices []struct {
			Timestamp int64   `json:"timestamp"`
			Price     float64 `json:"price"`
		} `json:"prices"`
	} `json:"coins"`
}

// History returns daily token prices for the trailing number of days
// from the DefiLlama price API.
func (c *LlamaClient) History(ctx context.Context, eco domain.Ecosystem, days int) ([]domain.PricePoint, error) {
	tokenID, ok := llamaTokenIDs[eco]
	if !ok {
		return nil, fmt.Errorf("no token id for ecosystem %q", eco)
	}

	start := time.Now().UTC().AddDate(0, 0, -days).Unix()
	u := fmt.Sprintf("%s/chart/%s?start=%d&span=%d&period=1d",
		c.coinsBaseURL, url.PathEscape(tokenID), start, days)

	var resp chartResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch price history: %w", err)
	}

	coin, ok := resp.Coins[tokenID]
	if !ok {
		return nil, fmt.Errorf("price response missing coin %q", tokenID)
	}

	points := make([]domain.PricePoint, 0, len(coin.Prices))
	for _, p := range coin.Prices {
		points = append(points, domain.PricePoint{
			Ecosystem: eco,
			Date:      time.Unix(p.Timestamp, 0).UTC().Truncate(24 * time.Hour),
			Price:     p.Price,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
