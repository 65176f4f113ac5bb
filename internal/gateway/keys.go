// Package gateway adapts a payment provider to payment.Gateway: it selects
// credentials per currency, guards calls with a circuit breaker and
// classifies every failure before it leaves the package.
package gateway

import (
	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
)

// Credentials is a provider key pair.
type Credentials struct {
	PublishableKey string
	SecretKey      string
}

// KeyRing holds the provider accounts: one for EUR and a default for every
// other currency.
type KeyRing struct {
	Default Credentials
	EUR     Credentials
}

// Select returns the key pair for currency. Both keys must be set.
func (k KeyRing) Select(currency money.Currency) (Credentials, error) {
	creds := k.Default
	if currency == money.EUR {
		creds = k.EUR
	}
	switch {
	case creds.SecretKey == "":
		return Credentials{}, &payment.ConfigurationError{Currency: currency, Missing: "secret key"}
	case creds.PublishableKey == "":
		return Credentials{}, &payment.ConfigurationError{Currency: currency, Missing: "publishable key"}
	}
	return creds, nil
}
