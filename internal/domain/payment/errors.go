package payment

import (
	"fmt"

	"github.com/xenking/storefront-checkout/internal/domain/money"
)

// InternalMessage is the only text clients see for an internal failure.
const InternalMessage = "internal error"

// ConfigurationError means credentials for a currency are missing. No
// provider call is made when it is returned.
type ConfigurationError struct {
	Currency money.Currency
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("payment credentials not configured for currency %q: missing %s", e.Currency, e.Missing)
}

// RejectedError means the provider declined the request. Message is safe to
// show to the client.
type RejectedError struct {
	Message string
	Code    string
	Status  int
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment rejected (%s): %s", e.Code, e.Message)
	}
	return "payment rejected: " + e.Message
}

// InternalError wraps any unexpected gateway failure. Err holds the detail
// for server logs; clients get InternalMessage.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, InternalMessage, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
