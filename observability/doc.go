// Package observability provides OpenTelemetry tracing and metrics for token
// authentication.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("authtoken"))
//	defer tp.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanVerify, requestID)
//	defer op.End(observability.OutcomeSuccess, nil)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	m, err := observability.NewAuthMetrics(observability.Meter("authtoken"))
//	m.RecordVerify(ctx, observability.OutcomeExpired)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("authtoken", version.GetVersion())
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
