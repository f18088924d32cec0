package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"sui-aptos-lab/internal/domain"
)

// DefaultGeckoBaseURL is the public CoinGecko API endpoint.
const DefaultGeckoBaseURL = "https://api.coingecko.com/api/v3"

// geckoCoinIDs maps ecosystems to CoinGecko coin identifiers.
var geckoCoinIDs = map[domain.Ecosystem]string{
	domain.EcosystemSui:   "sui",
	domain.EcosystemAptos: "aptos",
}

// GeckoClient fetches token supply and valuation data from CoinGecko.
// It shares the retry behavior of LlamaClient via an embedded client.
type GeckoClient struct {
	baseURL string
	llama   *LlamaClient // reused for its retrying get()
}

// GeckoOption configures GeckoClient.
type GeckoOption func(*GeckoClient)

// WithGeckoBaseURL overrides the API endpoint.
func WithGeckoBaseURL(u string) GeckoOption {
	return func(c *GeckoClient) {
		c.baseURL = u
	}
}

// WithGeckoHTTPClient sets a custom http.Client.
func WithGeckoHTTPClient(client *http.Client) GeckoOption {
	return func(c *GeckoClient) {
		c.llama.client = client
	}
}

// NewGeckoClient creates a new CoinGecko client.
func NewGeckoClient(opts ...GeckoOption) *GeckoClient {
	c := &GeckoClient{
		baseURL: DefaultGeckoBaseURL,
		llama:   NewLlamaClient(WithTimeout(20 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ SupplySource = (*GeckoClient)(nil)

// geckoCoin is the subset of the /coins/{id} response we consume.
type geckoCoin struct {
	MarketData struct {
		TotalSupply       *float64           `json:"total_supply"`
		CirculatingSupply *float64           `json:"circulating_supply"`
		MaxSupply         *float64           `json:"max_supply"`
		MarketCap         map[string]float64 `json:"market_cap"`
		FDV               map[string]float64 `json:"fully_diluted_valuation"`
		CurrentPrice      map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// Supply returns supply and valuation data for the ecosystem's native token.
func (c *GeckoClient) Supply(ctx context.Context, eco domain.Ecosystem) (*domain.SupplyInfo, error) {
	coinID, ok := geckoCoinIDs[eco]
	if !ok {
		return nil, fmt.Errorf("no coingecko id for ecosystem %q", eco)
	}

	u := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false",
		c.baseURL, url.PathEscape(coinID))

	var coin geckoCoin
	if err := c.llama.get(ctx, u, &coin); err != nil {
		return nil, fmt.Errorf("fetch supply for %s: %w", eco, err)
	}

	return &domain.SupplyInfo{
		Ecosystem:         eco,
		CirculatingSupply: derefOrZero(coin.MarketData.CirculatingSupply),
		TotalSupply:       derefOrZero(coin.MarketData.TotalSupply),
		MaxSupply:         derefOrZero(coin.MarketData.MaxSupply),
		MarketCap:         coin.MarketData.MarketCap["usd"],
		FDV:               coin.MarketData.FDV["usd"],
		Price:             coin.MarketData.CurrentPrice["usd"],
	}, nil
}
