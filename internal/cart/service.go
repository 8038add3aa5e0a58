package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/catalog"
	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/goldprice"
)

// Line is one priced cart line. Unit figures come from a single pricing
// config and gold price snapshot shared across the whole quote.
type Line struct {
	ItemID            uuid.UUID       `json:"item_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Quantity          int32           `json:"quantity"`
	GoldWeightGrams   decimal.Decimal `json:"gold_weight_grams"`
	UnitSubtotal      decimal.Decimal `json:"unit_subtotal"`
	UnitGST           decimal.Decimal `json:"unit_gst"`
	UnitTotal         decimal.Decimal `json:"unit_total"`
	LineTotal         decimal.Decimal `json:"line_total"`
	SubtotalBeforeTax decimal.Decimal `json:"subtotal_before_tax"`
	GST               decimal.Decimal `json:"gst"`
}

// Quote is the priced cart, with the coupon applied when redeemable. A
// rejected coupon does not fail the quote; the rejection reason is surfaced so
// the customer can decide to continue without the discount.
type Quote struct {
	CartID            uuid.UUID       `json:"cart_id"`
	Lines             []Line          `json:"lines"`
	SubtotalBeforeTax decimal.Decimal `json:"subtotal_before_tax"`
	GST               decimal.Decimal `json:"gst"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	CouponCode        *string         `json:"coupon_code,omitempty"`
	CouponRejection   *coupon.Reason  `json:"coupon_rejection,omitempty"`
}

// Service prices carts against the live catalog, gold price and coupon state.
type Service struct {
	store        *Store
	catalogStore *catalog.Store
	catalogSvc   *catalog.Service
	gold         *goldprice.Service
	coupons      *coupon.Service
	log          zerolog.Logger
}

// NewService constructs a cart service.
func NewService(store *Store, catalogStore *catalog.Store, catalogSvc *catalog.Service, gold *goldprice.Service, coupons *coupon.Service, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		catalogStore: catalogStore,
		catalogSvc:   catalogSvc,
		gold:         gold,
		coupons:      coupons,
		log:          log,
	}
}

// Store exposes the underlying store for handlers.
func (s *Service) Store() *Store { return s.store }

// QuoteFor prices the customer's cart. All lines share one gold price
// snapshot; the coupon is validated against the payable gross amount.
func (s *Service) QuoteFor(ctx context.Context, customerID uuid.UUID) (Quote, error) {
	c, err := s.store.GetOrCreate(ctx, customerID)
	if err != nil {
		return Quote{}, err
	}
	if len(c.Items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	goldPrice, err := s.gold.Current(ctx)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{CartID: c.ID, CouponCode: c.CouponCode}
	for _, item := range c.Items {
		product, err := s.catalogStore.GetByID(ctx, item.ProductID)
		if err != nil {
			return Quote{}, fmt.Errorf("price cart line %s: %w", item.ID, err)
		}
		unit, err := s.catalogSvc.PriceProduct(ctx, product, goldPrice)
		if err != nil {
			return Quote{}, fmt.Errorf("price cart line %s: %w", item.ID, err)
		}
		qty := decimal.NewFromInt32(item.Quantity)
		line := Line{
			ItemID:            item.ID,
			ProductID:         product.ID,
			Name:              product.Name,
			Quantity:          item.Quantity,
			GoldWeightGrams:   product.GoldWeightGrams,
			UnitSubtotal:      unit.SubtotalBeforeTax,
			UnitGST:           unit.GST,
			UnitTotal:         unit.Total,
			LineTotal:         unit.Total.Mul(qty),
			SubtotalBeforeTax: unit.SubtotalBeforeTax.Mul(qty),
			GST:               unit.GST.Mul(qty),
		}
		q.Lines = append(q.Lines, line)
		q.SubtotalBeforeTax = q.SubtotalBeforeTax.Add(line.SubtotalBeforeTax)
		q.GST = q.GST.Add(line.GST)
		q.Total = q.Total.Add(line.LineTotal)
	}

	if c.CouponCode != nil {
		res, err := s.coupons.Preview(ctx, *c.CouponCode, customerID, q.Total)
		if err != nil {
			if rej, ok := coupon.AsRejection(err); ok {
				q.CouponRejection = &rej.Reason
			} else {
				return Quote{}, err
			}
		} else {
			q.Discount = res.Discount
		}
	}
	q.Total = q.Total.Sub(q.Discount).Round(2)
	return q, nil
}
