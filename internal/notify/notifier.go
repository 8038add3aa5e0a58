package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/common"
	"github.com/gehnahouse/backend-gehna/internal/events"
)

// Notifier listens to domain events and emails the affected customer.
type Notifier struct {
	pool   *pgxpool.Pool
	sender common.EmailSender
	log    zerolog.Logger
}

// NewNotifier constructs a notifier.
func NewNotifier(pool *pgxpool.Pool, sender common.EmailSender, log zerolog.Logger) *Notifier {
	if sender == nil {
		sender = common.NopEmailSender{}
	}
	return &Notifier{pool: pool, sender: sender, log: log}
}

// Register subscribes the notifier to the bus topics it handles.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.TopicOrderCreated, n.onOrderCreated)
	bus.Subscribe(events.TopicOrderStatusChanged, n.onStatusChanged)
}

type orderEventPayload struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	To         string `json:"to"`
	From       string `json:"from"`
}

func (n *Notifier) onOrderCreated(ctx context.Context, evt events.Event) {
	var payload orderEventPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		n.log.Warn().Err(err).Msg("decode order created event failed")
		return
	}
	email, err := n.customerEmail(ctx, payload.CustomerID)
	if err != nil {
		n.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("lookup customer email failed")
		return
	}
	subject := "We received your order"
	body := fmt.Sprintf("<p>Thank you for your order <strong>%s</strong>. We will confirm it as soon as payment completes.</p>", payload.OrderID)
	if err := n.sender.Send(email, subject, body); err != nil {
		n.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("send order created email failed")
	}
}

var statusSubjects = map[string]string{
	"order_placed":  "Your order is confirmed",
	"acknowledged":  "Your order has been acknowledged",
	"manufacturing": "Your jewellery is being crafted",
	"shipping":      "Your order is on its way",
	"delivered":     "Your order has been delivered",
}

func (n *Notifier) onStatusChanged(ctx context.Context, evt events.Event) {
	var payload orderEventPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		n.log.Warn().Err(err).Msg("decode status change event failed")
		return
	}
	subject, ok := statusSubjects[payload.To]
	if !ok {
		return
	}
	email, err := n.customerEmail(ctx, payload.CustomerID)
	if err != nil {
		n.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("lookup customer email failed")
		return
	}
	body := fmt.Sprintf("<p>Order <strong>%s</strong> update: %s.</p>", payload.OrderID, subject)
	if err := n.sender.Send(email, subject, body); err != nil {
		n.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("send status email failed")
	}
}

func (n *Notifier) customerEmail(ctx context.Context, customerID string) (string, error) {
	if n.pool == nil {
		return "", fmt.Errorf("no database pool")
	}
	var email string
	err := n.pool.QueryRow(ctx, `SELECT email FROM customers WHERE id = $1`, customerID).Scan(&email)
	if err != nil {
		return "", err
	}
	return email, nil
}
