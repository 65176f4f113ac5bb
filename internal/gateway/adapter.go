package gateway

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/domain/money"
	"github.com/xenking/storefront-checkout/internal/domain/payment"
)

// Provider issues calls to the payment provider with the secret key of the
// selected account. Implementations return *payment.RejectedError when the
// provider declined the request; any other error is treated as internal.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, secretKey string, req payment.SessionRequest) (payment.Session, error)
	CreatePaymentIntent(ctx context.Context, secretKey string, req payment.IntentRequest) (payment.Intent, error)
}

// State is the progress of a single gateway request.
type State string

// Request states, in order.
const (
	StateIdle                State = "idle"
	StateCredentialsSelected State = "credentials_selected"
	StateRequestSent         State = "request_sent"
	StateSucceeded           State = "succeeded"
	StateRejected            State = "gateway_rejected"
	StateInternalFailure     State = "internal_failure"
)

// outcomeConfiguration labels requests that never left StateIdle.
const outcomeConfiguration = "configuration_error"

const (
	opCheckoutSession = "create_checkout_session"
	opPaymentIntent   = "create_payment_intent"
)

// Config controls provider call limits.
type Config struct {
	// Timeout bounds a single provider call. Zero disables it.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit.
	BreakerFailures uint32
	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration
}

// Adapter implements payment.Gateway on top of a Provider.
type Adapter struct {
	keys     KeyRing
	provider Provider
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[struct{}]
	tracer   trace.Tracer

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var _ payment.Gateway = (*Adapter)(nil)

// NewAdapter creates an Adapter.
func NewAdapter(
	keys KeyRing,
	provider Provider,
	cfg Config,
	lg *zap.Logger,
	mp metric.MeterProvider,
	tp trace.TracerProvider,
) (*Adapter, error) {
	meter := mp.Meter("github.com/xenking/storefront-checkout/internal/gateway")
	requests, err := meter.Int64Counter("checkout.gateway.requests",
		metric.WithDescription("Payment gateway requests by operation and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "requests counter")
	}
	duration, err := meter.Float64Histogram("checkout.gateway.duration",
		metric.WithDescription("Payment gateway request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "duration histogram")
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: breakerSuccess,
	})

	return &Adapter{
		keys:     keys,
		provider: provider,
		timeout:  cfg.Timeout,
		breaker:  breaker,
		tracer:   tp.Tracer("github.com/xenking/storefront-checkout/internal/gateway"),
		requests: requests,
		duration: duration,
	}, nil
}

// CreateCheckoutSession creates a hosted checkout session.
func (a *Adapter) CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	if err := req.Validate(); err != nil {
		return payment.Session{}, err
	}
	var sess payment.Session
	_, err := a.do(ctx, opCheckoutSession, req.Currency, func(ctx context.Context, creds Credentials) error {
		var err error
		sess, err = a.provider.CreateCheckoutSession(ctx, creds.SecretKey, req)
		return err
	})
	if err != nil {
		return payment.Session{}, err
	}
	return sess, nil
}

// CreatePaymentIntent creates a payment intent and returns it with the
// publishable key of the account that owns it.
func (a *Adapter) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	if err := req.Validate(); err != nil {
		return payment.Intent{}, err
	}
	var intent payment.Intent
	creds, err := a.do(ctx, opPaymentIntent, req.Currency, func(ctx context.Context, creds Credentials) error {
		var err error
		intent, err = a.provider.CreatePaymentIntent(ctx, creds.SecretKey, req)
		return err
	})
	if err != nil {
		return payment.Intent{}, err
	}
	intent.PublishableKey = creds.PublishableKey
	return intent, nil
}

// PublishableKey returns the client-side key for currency.
func (a *Adapter) PublishableKey(currency money.Currency) (string, error) {
	creds, err := a.keys.Select(currency)
	if err != nil {
		return "", err
	}
	return creds.PublishableKey, nil
}

// do runs one provider call: select credentials, send once through the
// breaker, classify the result.
func (a *Adapter) do(
	ctx context.Context,
	op string,
	currency money.Currency,
	call func(ctx context.Context, creds Credentials) error,
) (Credentials, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.currency", currency.String())),
	)
	defer span.End()
	lg := zctx.From(ctx).With(zap.String("op", op), zap.Stringer("currency", currency))

	creds, err := a.keys.Select(currency)
	if err != nil {
		lg.Error("Payment gateway is not configured", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcomeConfiguration)
		a.record(ctx, op, outcomeConfiguration, start)
		return Credentials{}, err
	}
	span.AddEvent(string(StateCredentialsSelected))

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	span.AddEvent(string(StateRequestSent))
	_, err = a.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, call(callCtx, creds)
	})

	state, err := classify(op, err)
	span.SetAttributes(attribute.String("payment.state", string(state)))
	a.record(ctx, op, string(state), start)

	switch state {
	case StateRejected:
		lg.Info("Payment request rejected", zap.Error(err))
		span.SetStatus(codes.Error, string(state))
	case StateInternalFailure:
		lg.Error("Payment request failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(state))
	default:
		lg.Debug("Payment request succeeded", zap.Duration("took", time.Since(start)))
	}
	return creds, err
}

func (a *Adapter) record(ctx context.Context, op, outcome string, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	)
	a.requests.Add(ctx, 1, attrs)
	a.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}

// classify maps a provider result to its final state. Only
// *payment.RejectedError keeps its message; everything else, including
// deadlines and an open circuit, becomes *payment.InternalError.
func classify(op string, err error) (State, error) {
	if err == nil {
		return StateSucceeded, nil
	}
	var rejected *payment.RejectedError
	if errors.As(err, &rejected) {
		return StateRejected, rejected
	}
	var internal *payment.InternalError
	if errors.As(err, &internal) {
		return StateInternalFailure, internal
	}
	return StateInternalFailure, &payment.InternalError{Op: op, Err: err}
}

// breakerSuccess keeps declines and caller cancellations from opening the
// circuit: the provider answered or was never at fault.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var rejected *payment.RejectedError
	return errors.As(err, &rejected)
}
