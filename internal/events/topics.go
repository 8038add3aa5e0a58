package events

// Topics published by the domain services.
const (
	TopicOrderCreated         = "order.created"
	TopicOrderStatusChanged   = "order.status_changed"
	TopicCouponRedeemed       = "coupon.redeemed"
	TopicPricingConfigUpdated = "pricing.config_updated"
	TopicGoldPriceUpdated     = "goldprice.updated"
)
