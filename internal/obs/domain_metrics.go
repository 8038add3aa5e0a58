package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingQuoteTotal counts pricing engine quote computations by outcome.
	PricingQuoteTotal *prometheus.CounterVec
	// CouponValidationTotal counts coupon validations by result (ok or rejection reason).
	CouponValidationTotal *prometheus.CounterVec
	// CouponRedemptionTotal counts coupon redemption attempts by outcome.
	CouponRedemptionTotal *prometheus.CounterVec
	// GoldPriceRefreshTotal counts gold price fetches by outcome.
	GoldPriceRefreshTotal *prometheus.CounterVec
	// OrderTransitionTotal counts admin order status transitions by target status and outcome.
	OrderTransitionTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quote_total",
			Help:      "Count of pricing quote computations by outcome.",
		}, []string{"result"})
		CouponValidationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validation_total",
			Help:      "Count of coupon validations by result.",
		}, []string{"result"})
		CouponRedemptionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemption_total",
			Help:      "Count of coupon redemption attempts by outcome.",
		}, []string{"result"})
		GoldPriceRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gold_price_refresh_total",
			Help:      "Count of gold price fetch attempts by outcome.",
		}, []string{"result"})
		OrderTransitionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transition_total",
			Help:      "Count of admin order status transitions by target and outcome.",
		}, []string{"target", "result"})

		mustRegisterCollector(reg, PricingQuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingQuoteTotal = v
			}
		})
		mustRegisterCollector(reg, CouponValidationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponValidationTotal = v
			}
		})
		mustRegisterCollector(reg, CouponRedemptionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponRedemptionTotal = v
			}
		})
		mustRegisterCollector(reg, GoldPriceRefreshTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GoldPriceRefreshTotal = v
			}
		})
		mustRegisterCollector(reg, OrderTransitionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderTransitionTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
