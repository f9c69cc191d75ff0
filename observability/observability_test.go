package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

// collect reads all metrics from reader and indexes sums and histogram
// counts by "<metric>/<outcome>".
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					outcome, _ := dp.Attributes.Value(attribute.Key(AttrOutcome))
					got[m.Name+"/"+outcome.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					op, _ := dp.Attributes.Value(attribute.Key(AttrOperationName))
					got[m.Name+"/"+op.AsString()] += int64(dp.Count)
				}
			}
		}
	}
	return got
}

func TestAuthMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewAuthMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewAuthMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordLogin(ctx, OutcomeSuccess)
	m.RecordLogin(ctx, OutcomeBadCredentials)
	m.RecordLogin(ctx, OutcomeBadCredentials)
	m.RecordVerify(ctx, OutcomeExpired)
	m.RecordRenew(ctx, "cookie", OutcomeSuccess)
	m.RecordAuthorize(ctx, OutcomeDenied)
	m.RecordHash(ctx, "mint", 3*time.Millisecond)
	m.RecordHash(ctx, "verify", time.Millisecond)

	got := collect(t, reader)
	want := map[string]int64{
		MetricLogin + "/success":         1,
		MetricLogin + "/bad_credentials": 2,
		MetricVerify + "/expired":        1,
		MetricRenew + "/success":         1,
		MetricAuthorize + "/denied":      1,
		MetricHashDuration + "/mint":     1,
		MetricHashDuration + "/verify":   1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d (all: %v)", k, got[k], v, got)
		}
	}
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var m *AuthMetrics
	ctx := context.Background()
	m.RecordLogin(ctx, OutcomeSuccess)
	m.RecordVerify(ctx, OutcomeSuccess)
	m.RecordRenew(ctx, "header", OutcomeSuccess)
	m.RecordAuthorize(ctx, OutcomeSuccess)
	m.RecordHash(ctx, "mint", time.Millisecond)
}

func TestNewAuthMetrics_Noop(t *testing.T) {
	m, err := NewAuthMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil || m == nil {
		t.Fatalf("NewAuthMetrics = %v, %v", m, err)
	}
	m.RecordVerify(context.Background(), OutcomeInvalidSignature)
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestOperation_Success(t *testing.T) {
	rec := withRecorder(t)

	_, op := StartOperation(context.Background(), SpanVerify, "req-1")
	op.SetUsername("alice")
	op.End(OutcomeSuccess, nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != SpanVerify {
		t.Errorf("span name = %q", s.Name())
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range s.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	if attrs[AttrRequestID] != "req-1" || attrs[AttrUsername] != "alice" || attrs[AttrOutcome] != "success" {
		t.Errorf("attributes = %v", attrs)
	}
	if s.Status().Code == codes.Error {
		t.Error("successful step must not be marked as error")
	}
}

func TestOperation_Error(t *testing.T) {
	rec := withRecorder(t)

	_, op := StartOperation(context.Background(), SpanLogin, "")
	op.End(OutcomeError, errors.New("directory offline"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestOperation_Duration(t *testing.T) {
	_, op := StartOperation(context.Background(), SpanAuthorize, "")
	op.StartTime = time.Now().Add(-50 * time.Millisecond)
	if d := op.Duration(); d < 45*time.Millisecond {
		t.Errorf("expected duration around 50ms, got %v", d)
	}
	op.End(OutcomeSuccess, nil)
}

func TestNewServiceHealth(t *testing.T) {
	sh := NewServiceHealth("authtoken", "1.0.0")

	if sh.Service != "authtoken" {
		t.Errorf("expected Service 'authtoken', got %s", sh.Service)
	}
	if sh.Status != HealthStatusUp {
		t.Errorf("expected Status 'up', got %s", sh.Status)
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("authtoken", "1.0.0")

	sh.AddComponent(Health{Name: "hasher", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("expected status 'up' after healthy component, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "salt", Status: HealthStatusDegraded, Message: "generated"})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected status 'degraded', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "directory", Status: HealthStatusDown, Message: "unreadable"})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected status 'down', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "late", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", sh.Status)
	}
}

func TestSetSpanAttribute(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "test-attrs")
	SetSpanAttribute(ctx, "string-key", "value")
	SetSpanAttribute(ctx, "int-key", 42)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	if n := len(rec.Ended()[0].Attributes()); n != 4 {
		t.Errorf("expected 4 attributes, got %d", n)
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span error"))
}

func TestInitTracerSamplingRates(t *testing.T) {
	for _, rate := range []float64{1.0, 0.0, 0.5} {
		t.Run(fmt.Sprint(rate), func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.SampleRate = rate
			tp, err := InitTracer(context.Background(), &cfg)
			if err != nil {
				t.Skipf("InitTracer failed (schema conflict): %v", err)
			}
			defer tp.Shutdown(context.Background())
		})
	}
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Skipf("InitMeter failed (schema conflict): %v", err)
	}
	defer mp.Shutdown(context.Background())
}
