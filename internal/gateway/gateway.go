// Package gateway talks to the online payment provider.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// Order is a provider-side order the client completes in the browser.
type Order struct {
	Reference    string `json:"orderId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (Order, error)
	VerifySignature(orderRef, paymentRef, signature string) bool
	PublicKey() string
}

// MinorUnits converts a major-unit amount (rupees) to minor units (paise).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Sign returns the hex HMAC-SHA256 of "orderRef|paymentRef".
func Sign(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against Sign in constant time.
func Verify(secret, orderRef, paymentRef, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	want := Sign(secret, orderRef, paymentRef)
	return hmac.Equal([]byte(want), []byte(signature))
}
