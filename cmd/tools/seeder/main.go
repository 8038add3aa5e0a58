// Command seeder loads development fixtures: the default pricing table, a
// few catalog products, a welcome coupon and a test customer account.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/auth"
	"github.com/gehnahouse/backend-gehna/internal/catalog"
	"github.com/gehnahouse/backend-gehna/internal/config"
	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/db"
	"github.com/gehnahouse/backend-gehna/internal/obs"
	"github.com/gehnahouse/backend-gehna/internal/pricing"
)

func main() {
	logger := obs.NewLogger("console", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	seedPricing(ctx, pricing.NewStore(pool), logger)
	seedProducts(ctx, catalog.NewStore(pool), logger)
	seedCoupons(ctx, coupon.NewStore(pool), logger)
	seedCustomer(ctx, auth.NewService(pool, cfg.JWTSecret, cfg.AccessTokenTTL), logger)

	logger.Info().Msg("seeding complete")
}

func seedPricing(ctx context.Context, store *pricing.Store, logger zerolog.Logger) {
	if _, err := store.Load(ctx); err == nil {
		logger.Info().Msg("pricing config already present")
		return
	} else if !errors.Is(err, pricing.ErrConfigNotFound) {
		logger.Fatal().Err(err).Msg("load pricing config")
	}
	cfg := pricing.DefaultConfig()
	cfg.LastUpdated = time.Now().UTC()
	cfg.UpdatedBy = "seeder"
	if err := store.Replace(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("seed pricing config")
	}
	logger.Info().Msg("seeded pricing config")
}

func seedProducts(ctx context.Context, store *catalog.Store, logger zerolog.Logger) {
	products := []catalog.Product{
		{
			Slug:            "solitaire-promise-ring",
			Name:            "Solitaire Promise Ring",
			Description:     "18k gold ring with a single brilliant-cut diamond.",
			Metal:           "gold_18k",
			GoldWeightGrams: decimal.RequireFromString("3.2"),
			Stones: []catalog.Stone{
				{CaratWeight: decimal.RequireFromString("0.52"), BaseValuePerCarat: decimal.NewFromInt(85000)},
			},
			Images:   []string{"https://cdn.gehnahouse.in/products/solitaire-promise-ring.jpg"},
			IsActive: true,
		},
		{
			Slug:            "twin-stone-pendant",
			Name:            "Twin Stone Pendant",
			Description:     "22k gold pendant set with two matched diamonds.",
			Metal:           "gold_22k",
			GoldWeightGrams: decimal.RequireFromString("5.8"),
			Stones: []catalog.Stone{
				{CaratWeight: decimal.RequireFromString("1.1"), BaseValuePerCarat: decimal.NewFromInt(72000)},
				{CaratWeight: decimal.RequireFromString("1.05"), BaseValuePerCarat: decimal.NewFromInt(72000)},
			},
			Images:   []string{"https://cdn.gehnahouse.in/products/twin-stone-pendant.jpg"},
			IsActive: true,
		},
		{
			Slug:            "plain-gold-bangle",
			Name:            "Plain Gold Bangle",
			Description:     "Classic 14k bangle, no stones.",
			Metal:           "gold_14k",
			GoldWeightGrams: decimal.RequireFromString("12.4"),
			Images:          []string{"https://cdn.gehnahouse.in/products/plain-gold-bangle.jpg"},
			IsActive:        true,
		},
	}
	for _, p := range products {
		if _, err := store.Create(ctx, p); err != nil {
			if errors.Is(err, catalog.ErrDuplicateSlug) {
				logger.Info().Str("slug", p.Slug).Msg("product already present")
				continue
			}
			logger.Fatal().Err(err).Str("slug", p.Slug).Msg("seed product")
		}
		logger.Info().Str("slug", p.Slug).Msg("seeded product")
	}
}

func seedCoupons(ctx context.Context, store *coupon.Store, logger zerolog.Logger) {
	maxDiscount := decimal.NewFromInt(5000)
	usageLimit := int32(100)
	expires := time.Now().AddDate(0, 3, 0)
	coupons := []coupon.Coupon{
		{
			Code:              "WELCOME10",
			DiscountType:      coupon.DiscountPercentage,
			DiscountValue:     decimal.NewFromInt(10),
			MinOrderAmount:    decimal.NewFromInt(10000),
			MaxDiscountAmount: &maxDiscount,
			UsageLimit:        &usageLimit,
			PerCustomerLimit:  1,
			StartsAt:          time.Now(),
			ExpiresAt:         &expires,
			IsActive:          true,
		},
		{
			Code:             "FESTIVE500",
			DiscountType:     coupon.DiscountFlat,
			DiscountValue:    decimal.NewFromInt(500),
			MinOrderAmount:   decimal.NewFromInt(5000),
			PerCustomerLimit: 3,
			StartsAt:         time.Now(),
			IsActive:         true,
		},
	}
	for _, c := range coupons {
		if _, err := store.Create(ctx, c); err != nil {
			if errors.Is(err, coupon.ErrDuplicateCode) {
				logger.Info().Str("code", c.Code).Msg("coupon already present")
				continue
			}
			logger.Fatal().Err(err).Str("code", c.Code).Msg("seed coupon")
		}
		logger.Info().Str("code", c.Code).Msg("seeded coupon")
	}
}

func seedCustomer(ctx context.Context, svc *auth.Service, logger zerolog.Logger) {
	const email = "test@gehnahouse.in"
	if _, err := svc.Register(ctx, email, "Test Customer", "changeme-now"); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			logger.Info().Str("email", email).Msg("customer already present")
			return
		}
		logger.Fatal().Err(err).Msg("seed customer")
	}
	logger.Info().Str("email", email).Msg("seeded customer")
}
