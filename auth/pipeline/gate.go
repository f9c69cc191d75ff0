package pipeline

import (
	"context"
	"net/http"

	"github.com/kbukum/authtoken/auth/authctx"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
)

// RequiresPerms returns middleware that lets a request through only when the
// identity attached by Authenticate holds every permission in perms. With no
// perms any authenticated identity passes. Denied requests never reach next.
func (p *Pipeline) RequiresPerms(perms ...string) func(http.Handler) http.Handler {
	required := append([]string(nil), perms...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, op := observability.StartOperation(r.Context(), observability.SpanAuthorize, logger.RequestIDFromContext(r.Context()))
			username, _ := authctx.Username(ctx)
			op.SetUsername(username)

			err := p.gate.Authorize(ctx, authctx.Identity(ctx), required)
			if err == nil {
				op.End(observability.OutcomeSuccess, nil)
				p.metrics.RecordAuthorize(ctx, observability.OutcomeSuccess)
				next.ServeHTTP(w, r)
				return
			}

			outcome := gateOutcome(ctx, err)
			op.End(outcome, err)
			p.metrics.RecordAuthorize(ctx, outcome)
			if outcome == observability.OutcomeCancelled {
				return
			}
			if outcome == observability.OutcomeDenied {
				p.log.WithContext(ctx).Warn("permission denied", logger.Fields(
					logger.FieldUsername, username,
					"required", required,
				))
			}
			p.respondError(w, r, err)
		})
	}
}

func gateOutcome(ctx context.Context, err error) observability.Outcome {
	switch {
	case ctx.Err() != nil:
		return observability.OutcomeCancelled
	case apperrors.HasCode(err, apperrors.ErrCodeForbidden):
		return observability.OutcomeDenied
	case apperrors.HasCode(err, apperrors.ErrCodeUnauthenticated):
		return observability.OutcomeUnauthenticated
	}
	return observability.OutcomeError
}
