package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUnavailable is returned when no current gold price can be produced.
var ErrUnavailable = errors.New("gold price unavailable")

// Provider supplies the current gold price per gram.
type Provider interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// HTTPProvider pulls the price from the external scraping endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider constructs a provider for the given endpoint.
func NewHTTPProvider(url string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPProvider{url: url, client: client}
}

type priceResponse struct {
	PricePerGram decimal.Decimal `json:"price_per_gram"`
}

// Fetch requests the endpoint and parses the price.
func (p *HTTPProvider) Fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build gold price request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch gold price: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("gold price endpoint returned %d", resp.StatusCode)
	}
	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode gold price response: %w", err)
	}
	if !body.PricePerGram.IsPositive() {
		return decimal.Zero, fmt.Errorf("gold price endpoint returned non-positive price %s", body.PricePerGram)
	}
	return body.PricePerGram, nil
}
