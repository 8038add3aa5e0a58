package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/goldprice"
	"github.com/gehnahouse/backend-gehna/internal/pricing"
)

const cachePrefix = "catalog:"

// PricedProduct is a product with its live computed sell price. DisplayPrice
// is nil when pricing is temporarily unavailable.
type PricedProduct struct {
	Product
	DisplayPrice *pricing.Quote `json:"display_price,omitempty"`
}

// Service layers live pricing and caching over the catalog store.
type Service struct {
	store   *Store
	pricing *pricing.Service
	gold    *goldprice.Service
	cache   *Cache
	log     zerolog.Logger
}

// NewService constructs a catalog service.
func NewService(store *Store, pricingSvc *pricing.Service, gold *goldprice.Service, cache *Cache, log zerolog.Logger) *Service {
	return &Service{store: store, pricing: pricingSvc, gold: gold, cache: cache, log: log}
}

// InvalidateCache drops all cached listings and details. Wired to the pricing
// config and gold price update events.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cachePrefix)
}

type listResult struct {
	Products []PricedProduct `json:"products"`
	Total    int64           `json:"total"`
}

// List returns priced active products matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter, page, perPage int) ([]PricedProduct, int64, error) {
	key := fmt.Sprintf("%slist:%s:%s:%d:%d", cachePrefix, f.Metal, f.Search, page, perPage)
	var cached listResult
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached.Products, cached.Total, nil
	}

	products, total, err := s.store.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	goldPrice, goldErr := s.gold.Current(ctx)
	priced := make([]PricedProduct, 0, len(products))
	for _, p := range products {
		pp := PricedProduct{Product: p}
		if goldErr == nil {
			if quote, err := s.priceOf(ctx, p, goldPrice); err == nil {
				pp.DisplayPrice = &quote
			}
		}
		priced = append(priced, pp)
	}
	if goldErr == nil {
		s.cache.SetJSON(ctx, key, listResult{Products: priced, Total: total})
	}
	return priced, total, nil
}

// GetBySlug returns one priced product. Pricing failure is an error here, the
// detail page must not show a product without a price.
func (s *Service) GetBySlug(ctx context.Context, slug string) (PricedProduct, error) {
	key := cachePrefix + "detail:" + slug
	var cached PricedProduct
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	p, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return PricedProduct{}, err
	}
	goldPrice, err := s.gold.Current(ctx)
	if err != nil {
		return PricedProduct{}, err
	}
	quote, err := s.priceOf(ctx, p, goldPrice)
	if err != nil {
		return PricedProduct{}, err
	}
	priced := PricedProduct{Product: p, DisplayPrice: &quote}
	s.cache.SetJSON(ctx, key, priced)
	return priced, nil
}

// PriceProduct computes the live quote for a product at the given gold price.
// Checkout uses this directly so every line shares one gold price snapshot.
func (s *Service) PriceProduct(ctx context.Context, p Product, goldPrice decimal.Decimal) (pricing.Quote, error) {
	return s.priceOf(ctx, p, goldPrice)
}

func (s *Service) priceOf(ctx context.Context, p Product, goldPrice decimal.Decimal) (pricing.Quote, error) {
	stones := make([]pricing.DiamondComponent, 0, len(p.Stones))
	for _, st := range p.Stones {
		stones = append(stones, pricing.DiamondComponent{
			CaratWeight: st.CaratWeight,
			BaseValue:   st.BaseValuePerCarat.Mul(st.CaratWeight),
		})
	}
	return s.pricing.Quote(ctx, stones, p.GoldWeightGrams, goldPrice)
}
