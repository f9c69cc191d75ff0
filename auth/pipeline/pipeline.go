// Package pipeline is the net/http middleware that turns a request into an
// authenticated identity or a rejection.
//
// A Pipeline is built once from auth.Config and the host's collaborators:
//
//	p, err := pipeline.New(cfg, auth.Collaborators{
//	    Authenticator: auth.AuthenticatorFunc(checkPassword),
//	    Secrets:       auth.SecretLookupFunc(currentSecret),
//	}, pipeline.WithLogger(log))
//
//	mux.Handle("/", p.Authenticate(app))
//	mux.Handle("/admin", p.Authenticate(p.RequiresPerms("admin")(adminHandler)))
//
// Requests to the login route (default POST /auth-token) are answered by the
// pipeline. Every other request is checked for a token in the auth cookie,
// then the query string, then the body. Requests without a token continue
// anonymously; requests with a bad token are rejected with 401.
package pipeline

import (
	"context"
	"fmt"

	"github.com/kbukum/authtoken/auth"
	"github.com/kbukum/authtoken/auth/expiry"
	"github.com/kbukum/authtoken/auth/hash"
	"github.com/kbukum/authtoken/auth/permission"
	"github.com/kbukum/authtoken/auth/token"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
)

const component = "authtoken"

// Pipeline authenticates requests. All of its state is fixed at construction,
// so one Pipeline serves any number of concurrent requests without locking.
type Pipeline struct {
	settings auth.Settings
	collab   auth.Collaborators
	hasher   *hash.Hasher
	policy   *expiry.Policy
	minter   *token.Minter
	verifier *token.Verifier
	gate     *permission.Gate
	log      *logger.Logger
	metrics  *observability.AuthMetrics
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *observability.AuthMetrics
	clock   expiry.Clock
}

// WithLogger sets the logger. Defaults to the logger registered under
// "authtoken", or the global one.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records authentication outcomes on m.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(c expiry.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New resolves cfg and builds a Pipeline. Configuration problems and missing
// collaborators are CONFIG_ERRORs and should stop the process.
func New(cfg auth.Config, collab auth.Collaborators, opts ...Option) (*Pipeline, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.Get(component)
	if o.log != nil {
		log = o.log.WithComponent(component)
	}

	settings, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if err := collab.Validate(); err != nil {
		return nil, apperrors.Config("%s", err.Error())
	}

	hasher, err := hash.New(settings.Hash)
	if err != nil {
		return nil, err
	}
	if hasher.GeneratedSalt() {
		log.Warn("no auth_token_hash.salt configured; using a generated salt, tokens will not survive a restart or validate across replicas")
	}

	policy, err := expiry.New(settings.Lifetime, settings.RenewWindow, o.clock)
	if err != nil {
		return nil, err
	}

	observe := token.WithHashObserver(o.metrics.RecordHash)
	p := &Pipeline{
		settings: *settings,
		collab:   collab,
		hasher:   hasher,
		policy:   policy,
		minter:   token.NewMinter(hasher, policy, observe),
		verifier: token.NewVerifier(hasher, policy, observe),
		gate:     permission.NewGate(collab.Permissions),
		log:      log,
		metrics:  o.metrics,
	}

	log.Info("token authentication ready", logger.Fields(
		"login_path", settings.LoginPath,
		"lifetime", settings.Lifetime.String(),
		"renew_window", policy.Window().String(),
		"renew_policy", string(settings.RenewPolicy),
		"algorithm", string(hasher.Algorithm()),
		"iterations", hasher.Iterations(),
	))
	return p, nil
}

// Settings returns a copy of the resolved configuration.
func (p *Pipeline) Settings() auth.Settings {
	return p.settings
}

// Minter returns the minter bound to this pipeline's hasher and policy.
func (p *Pipeline) Minter() *token.Minter { return p.minter }

// Verifier returns the verifier bound to this pipeline's hasher and policy.
func (p *Pipeline) Verifier() *token.Verifier { return p.verifier }

// CheckHealth reports whether tokens can be minted. A generated salt is
// reported as degraded since tokens will not outlive the process.
func (p *Pipeline) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{
		Name:   component,
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"algorithm":  string(p.hasher.Algorithm()),
			"iterations": fmt.Sprint(p.hasher.Iterations()),
			"login_path": p.settings.LoginPath,
		},
	}
	if err := p.hasher.Validate(); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	if p.hasher.GeneratedSalt() {
		h.Status = observability.HealthStatusDegraded
		h.Message = "salt generated at startup"
	}
	return h
}
