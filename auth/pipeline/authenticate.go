package pipeline

import (
	"errors"
	"net/http"

	"github.com/kbukum/authtoken/auth"
	"github.com/kbukum/authtoken/auth/authctx"
	"github.com/kbukum/authtoken/auth/token"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
)

// state is a step of the per-request authentication state machine.
type state int

const (
	stateStart state = iota
	stateLocating
	stateLogin
	stateToken
	stateAnonymous
	statePopulated
	stateDone
	stateRejected
	stateAbandoned
)

var stateNames = [...]string{
	stateStart:     "start",
	stateLocating:  "locating_credentials",
	stateLogin:     "login_flow",
	stateToken:     "token_flow",
	stateAnonymous: "anonymous",
	statePopulated: "populated",
	stateDone:      "done",
	stateRejected:  "rejected",
	stateAbandoned: "abandoned",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// attempt carries one request through the state machine.
type attempt struct {
	w   http.ResponseWriter
	r   *http.Request
	log *logger.Logger

	state    state
	username string
	identity any
	err      error

	// login is set on the login route; the pipeline answers those itself.
	login      bool
	loginToken token.Token

	// renewal is minted during the token flow and delivered only once the
	// request reaches DONE.
	renewal     *token.Token
	renewalFrom source
}

// reject moves the attempt to REJECTED with err.
func (a *attempt) reject(err error) {
	a.err = err
	a.state = stateRejected
}

// cancelled moves the attempt to ABANDONED when the client has gone away.
func (a *attempt) cancelled() bool {
	if err := a.r.Context().Err(); err != nil {
		a.err = err
		a.state = stateAbandoned
		return true
	}
	return false
}

// Authenticate wraps next with the authentication state machine. next runs
// for anonymous and authenticated requests; rejected requests and the login
// route are answered here.
func (p *Pipeline) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := &attempt{
			w:     w,
			r:     r,
			log:   p.log.WithContext(r.Context()),
			state: stateStart,
		}
		p.run(a)

		switch a.state {
		case stateDone:
			if a.login {
				p.respondLogin(a)
				return
			}
			p.deliver(a)
			next.ServeHTTP(w, a.r)
		case stateRejected:
			p.respondError(a.w, a.r, a.err)
		case stateAbandoned:
			a.log.Debug("request cancelled during authentication", logger.Fields(
				logger.FieldUsername, a.username,
			))
		}
	})
}

// run drives the attempt until it reaches a terminal state. Steps execute
// strictly in order; each one reads the result of the one before.
func (p *Pipeline) run(a *attempt) {
	for {
		switch a.state {
		case stateStart:
			a.state = stateLocating
		case stateLocating:
			if a.r.URL.Path == p.settings.LoginPath {
				a.login = true
				a.state = stateLogin
			} else {
				a.state = stateToken
			}
		case stateLogin:
			p.loginFlow(a)
		case stateToken:
			p.tokenFlow(a)
		case stateAnonymous:
			a.state = stateDone
		case statePopulated:
			p.populate(a)
		case stateDone, stateRejected, stateAbandoned:
			return
		}
	}
}

// tokenFlow locates and verifies a token.
func (p *Pipeline) tokenFlow(a *attempt) {
	raw, src := p.locateToken(a.r)
	if src == sourceNone {
		a.state = stateAnonymous
		return
	}

	ctx, op := observability.StartOperation(a.r.Context(), observability.SpanVerify, logger.RequestIDFromContext(a.r.Context()))
	res, err := p.verifier.Verify(ctx, raw, p.collab.Secrets)
	if err != nil {
		p.tokenFailure(a, op, src, err)
		return
	}
	op.SetUsername(res.Username)
	op.End(observability.OutcomeSuccess, nil)
	p.metrics.RecordVerify(ctx, observability.OutcomeSuccess)

	a.username = res.Username
	if res.ShouldRenew(p.settings.RenewPolicy, src == sourceCookie) {
		if !p.renew(a, res, src) {
			return
		}
	}
	a.state = statePopulated
}

// tokenFailure classifies a verification error.
func (p *Pipeline) tokenFailure(a *attempt, op *observability.Operation, src source, err error) {
	ctx := a.r.Context()
	if rej, ok := token.AsRejection(err); ok {
		outcome := rejectionOutcome(rej.Reason)
		op.SetUsername(rej.Username)
		op.End(outcome, nil)
		p.metrics.RecordVerify(ctx, outcome)
		a.log.Warn("token rejected", logger.Fields(
			logger.FieldReason, string(rej.Reason),
			logger.FieldUsername, rej.Username,
			logger.FieldTransport, string(src),
		))
		if src == sourceCookie {
			p.clearCookie(a.w)
		}
		a.reject(apperrors.Unauthorized("").WithCause(rej))
		return
	}
	if a.cancelled() {
		op.End(observability.OutcomeCancelled, err)
		p.metrics.RecordVerify(ctx, observability.OutcomeCancelled)
		return
	}
	op.End(observability.OutcomeError, err)
	p.metrics.RecordVerify(ctx, observability.OutcomeError)
	a.reject(err)
}

// renew mints a replacement token and keeps it on the attempt. It reports
// false when the attempt left the flow.
func (p *Pipeline) renew(a *attempt, res *token.Result, src source) bool {
	if a.cancelled() {
		return false
	}
	ctx := a.r.Context()
	fresh, err := p.minter.Renew(ctx, res, p.settings.Lifetime)
	if err != nil {
		if a.cancelled() {
			return false
		}
		// The presented token is still valid; serve the request without renewal.
		p.metrics.RecordRenew(ctx, string(src), observability.OutcomeError)
		observability.SetSpanError(ctx, err)
		a.log.Error("token renewal failed", logger.Fields(
			logger.FieldUsername, res.Username,
			logger.FieldError, err.Error(),
		))
		return true
	}
	if a.cancelled() {
		return false
	}
	a.renewal = &fresh
	a.renewalFrom = src
	return true
}

// deliver writes a pending renewal. It runs only for requests that reached
// DONE, so a rejected request never receives a fresh token.
func (p *Pipeline) deliver(a *attempt) {
	if a.renewal == nil {
		return
	}
	ctx := a.r.Context()
	delivered := p.deliverRenewal(a.w, a.renewalFrom, *a.renewal)
	p.metrics.RecordRenew(ctx, string(delivered), observability.OutcomeSuccess)
	observability.SetSpanAttribute(ctx, observability.AttrRenewedVia, string(delivered))
	a.log.Debug("token renewed", logger.Fields(
		logger.FieldUsername, a.username,
		logger.FieldTransport, string(delivered),
	))
}

// populate attaches the identity to the request context.
func (p *Pipeline) populate(a *attempt) {
	ctx := a.r.Context()
	identity := any(auth.Subject{Username: a.username})
	if p.collab.Populator != nil {
		pctx, op := observability.StartOperation(ctx, observability.SpanPopulate, logger.RequestIDFromContext(ctx))
		op.SetUsername(a.username)
		populated, err := p.collab.Populator.PopulateUser(pctx, a.username)
		if err == nil && isNil(populated) {
			err = errors.New("populator returned no identity")
		}
		if err != nil {
			op.End(observability.OutcomeError, err)
			if a.cancelled() {
				return
			}
			a.log.Error("populate user failed", logger.Fields(
				logger.FieldUsername, a.username,
				logger.FieldError, err.Error(),
			))
			a.reject(err)
			return
		}
		op.End(observability.OutcomeSuccess, nil)
		identity = populated
	}
	ctx = authctx.SetUsername(authctx.Set(ctx, identity), a.username)
	a.r = a.r.WithContext(ctx)
	a.identity = identity
	a.state = stateDone
}

func rejectionOutcome(r token.Reason) observability.Outcome {
	switch r {
	case token.ReasonExpired:
		return observability.OutcomeExpired
	case token.ReasonInvalidSignature:
		return observability.OutcomeInvalidSignature
	default:
		return observability.OutcomeMalformed
	}
}

// respondError writes err as a JSON error body. Errors that are not
// AppErrors are collaborator failures and become a 500 that hides the cause.
func (p *Pipeline) respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		observability.SetSpanError(r.Context(), err)
		p.log.WithContext(r.Context()).Error("authentication failed", logger.Fields(
			logger.FieldPath, r.URL.Path,
			logger.FieldError, err.Error(),
		))
	}
	if allowed, ok := appErr.Details["allowed"].([]string); ok && appErr.HTTPStatus == http.StatusMethodNotAllowed {
		for _, m := range allowed {
			w.Header().Add("Allow", m)
		}
	}
	writeJSON(w, appErr.HTTPStatus, appErr.ToResponse())
}
