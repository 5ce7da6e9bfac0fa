package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

var ErrInvalidAmount = errors.New("order amount must be positive")

// PaymentIntents is the part of the stripe client used to open orders.
type PaymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeGateway struct {
	intents       PaymentIntents
	publicKey     string
	signingSecret string
}

// NewStripeGateway builds a gateway on its own API client rather than the
// package-level stripe.Key.
func NewStripeGateway(secretKey, publicKey, signingSecret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return NewStripeGatewayWithClient(sc.PaymentIntents, publicKey, signingSecret)
}

func NewStripeGatewayWithClient(intents PaymentIntents, publicKey, signingSecret string) *StripeGateway {
	return &StripeGateway{intents: intents, publicKey: publicKey, signingSecret: signingSecret}
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (Order, error) {
	minor := MinorUnits(amount)
	if minor <= 0 {
		return Order{}, ErrInvalidAmount
	}
	currency = strings.ToLower(currency)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return Order{}, fmt.Errorf("stripe payment intent failed: %w", err)
	}
	return Order{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       minor,
		Currency:     strings.ToUpper(currency),
	}, nil
}

func (g *StripeGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return Verify(g.signingSecret, orderRef, paymentRef, signature)
}

func (g *StripeGateway) PublicKey() string { return g.publicKey }
