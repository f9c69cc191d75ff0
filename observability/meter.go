package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/authtoken/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Outcome labels an authentication step in metrics and spans.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAnonymous        Outcome = "anonymous"
	OutcomeBadCredentials   Outcome = "bad_credentials"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeExpired          Outcome = "expired"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeDenied           Outcome = "denied"
	OutcomeUnauthenticated  Outcome = "unauthenticated"
	OutcomeError            Outcome = "error"
	OutcomeCancelled        Outcome = "cancelled"
)

// Metric names.
const (
	MetricLogin        = "authtoken.login"
	MetricVerify       = "authtoken.verify"
	MetricRenew        = "authtoken.renew"
	MetricAuthorize    = "authtoken.authorize"
	MetricHashDuration = "authtoken.hash.duration"
)

// AuthMetrics holds the instruments for token authentication. A nil
// *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	login        metric.Int64Counter
	verify       metric.Int64Counter
	renew        metric.Int64Counter
	authorize    metric.Int64Counter
	hashDuration metric.Float64Histogram
}

// NewAuthMetrics creates metric instruments on the given meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	login, err := meter.Int64Counter(MetricLogin,
		metric.WithDescription("Login attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricLogin, err)
	}

	verify, err := meter.Int64Counter(MetricVerify,
		metric.WithDescription("Token verifications by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricVerify, err)
	}

	renew, err := meter.Int64Counter(MetricRenew,
		metric.WithDescription("Token renewals by transport and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRenew, err)
	}

	authorize, err := meter.Int64Counter(MetricAuthorize,
		metric.WithDescription("Permission checks by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricAuthorize, err)
	}

	hashDuration, err := meter.Float64Histogram(MetricHashDuration,
		metric.WithDescription("Duration of token signature computation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricHashDuration, err)
	}

	return &AuthMetrics{
		login:        login,
		verify:       verify,
		renew:        renew,
		authorize:    authorize,
		hashDuration: hashDuration,
	}, nil
}

func outcomeAttr(o Outcome) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrOutcome, string(o)))
}

// RecordLogin records a login attempt.
func (m *AuthMetrics) RecordLogin(ctx context.Context, outcome Outcome) {
	if m == nil {
		return
	}
	m.login.Add(ctx, 1, outcomeAttr(outcome))
}

// RecordVerify records a token verification.
func (m *AuthMetrics) RecordVerify(ctx context.Context, outcome Outcome) {
	if m == nil {
		return
	}
	m.verify.Add(ctx, 1, outcomeAttr(outcome))
}

// RecordRenew records a token renewal delivered over transport.
func (m *AuthMetrics) RecordRenew(ctx context.Context, transport string, outcome Outcome) {
	if m == nil {
		return
	}
	m.renew.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, string(outcome)),
		attribute.String(AttrTransport, transport),
	))
}

// RecordAuthorize records a permission gate decision.
func (m *AuthMetrics) RecordAuthorize(ctx context.Context, outcome Outcome) {
	if m == nil {
		return
	}
	m.authorize.Add(ctx, 1, outcomeAttr(outcome))
}

// RecordHash records how long a signature took to compute.
func (m *AuthMetrics) RecordHash(ctx context.Context, op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.hashDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String(AttrOperationName, op),
	))
}
