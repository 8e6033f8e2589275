package miniapp

import (
	"context"
	"fmt"

	"github.com/healthmall/client-core/internal/core/ports"
	"github.com/healthmall/client-core/pkg/idempotency"
)

// The mini-program's mutating operations each carry a namespaced
// idempotency key; the server deduplicates retried writes on it verbatim.
const (
	keyPrefixOrderCreate     = "mp:order:create"
	keyPrefixOrderPay        = "mp:order:pay"
	keyPrefixOrderConfirm    = "mp:order:confirm-received"
	keyPrefixBookingCreate   = "mp:booking:create"
	keyPrefixAIMessageCreate = "mp:ai:message"
)

// CreateOrder places an order.
func (a *App) CreateOrder(ctx context.Context, req any, out any) error {
	return a.client.Post(ctx, "/api/v1/orders", req, out,
		&ports.RequestOptions{IdempotencyKey: idempotency.NewKey(keyPrefixOrderCreate)})
}

// PayOrder starts payment for an order.
func (a *App) PayOrder(ctx context.Context, orderID string, out any) error {
	path := fmt.Sprintf("/api/v1/orders/%s/pay", orderID)
	return a.client.Post(ctx, path, nil, out,
		&ports.RequestOptions{IdempotencyKey: idempotency.NewKey(keyPrefixOrderPay)})
}

// ConfirmReceived marks an order's goods as received.
func (a *App) ConfirmReceived(ctx context.Context, orderID string) error {
	path := fmt.Sprintf("/api/v1/orders/%s/confirm-received", orderID)
	return a.client.Post(ctx, path, nil, nil,
		&ports.RequestOptions{IdempotencyKey: idempotency.NewKey(keyPrefixOrderConfirm)})
}

// CreateBooking books a service slot.
func (a *App) CreateBooking(ctx context.Context, req any, out any) error {
	return a.client.Post(ctx, "/api/v1/bookings", req, out,
		&ports.RequestOptions{IdempotencyKey: idempotency.NewKey(keyPrefixBookingCreate)})
}

// SendAIMessage posts a message into an AI conversation.
func (a *App) SendAIMessage(ctx context.Context, conversationID string, req any, out any) error {
	path := fmt.Sprintf("/api/v1/ai/conversations/%s/messages", conversationID)
	return a.client.Post(ctx, path, req, out,
		&ports.RequestOptions{IdempotencyKey: idempotency.NewKey(keyPrefixAIMessageCreate)})
}
