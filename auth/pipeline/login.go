package pipeline

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"reflect"

	"github.com/kbukum/authtoken/auth/token"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
	"github.com/kbukum/authtoken/validation"
)

// loginRequest is the body accepted by the login route.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	AuthToken string `json:"authToken,omitempty"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
}

// badCredentials is the only login failure a client ever sees.
func badCredentials() *apperrors.AppError {
	return apperrors.Unauthorized("Invalid username or password.")
}

// loginFlow authenticates credentials and mints a token.
func (p *Pipeline) loginFlow(a *attempt) {
	if a.r.Method != http.MethodPost {
		a.reject(apperrors.MethodNotAllowed(p.settings.LoginPath, http.MethodPost))
		return
	}

	ctx, op := observability.StartOperation(a.r.Context(), observability.SpanLogin, logger.RequestIDFromContext(a.r.Context()))
	req, err := p.readCredentials(a.w, a.r)
	if err != nil {
		outcome := observability.OutcomeBadCredentials
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			outcome = observability.OutcomeError
		}
		op.End(outcome, nil)
		p.metrics.RecordLogin(ctx, outcome)
		a.log.Warn("login rejected", logger.Fields(
			logger.FieldReason, err.Error(),
		))
		a.reject(err)
		return
	}
	op.SetUsername(req.Username)

	principal, reason, err := p.collab.Authenticator.AuthenticateUser(ctx, req.Username, req.Password)
	if err != nil {
		op.End(observability.OutcomeError, err)
		if a.cancelled() {
			p.metrics.RecordLogin(ctx, observability.OutcomeCancelled)
			return
		}
		p.metrics.RecordLogin(ctx, observability.OutcomeError)
		a.reject(err)
		return
	}
	if isNil(principal) {
		op.End(observability.OutcomeBadCredentials, nil)
		p.metrics.RecordLogin(ctx, observability.OutcomeBadCredentials)
		a.log.Warn("login rejected", logger.Fields(
			logger.FieldReason, reason,
			logger.FieldUsername, req.Username,
		))
		a.reject(badCredentials())
		return
	}

	username := principal.GetUsername()
	if username == "" {
		username = req.Username
	}
	if err := token.ValidateUsername(username); err != nil {
		op.End(observability.OutcomeError, err)
		p.metrics.RecordLogin(ctx, observability.OutcomeError)
		a.reject(apperrors.Internal(err))
		return
	}

	if a.cancelled() {
		op.End(observability.OutcomeCancelled, nil)
		p.metrics.RecordLogin(ctx, observability.OutcomeCancelled)
		return
	}
	t, err := p.minter.Issue(ctx, username, principal.GetSecret(), p.settings.Lifetime)
	if err != nil {
		op.End(observability.OutcomeError, err)
		if a.cancelled() {
			p.metrics.RecordLogin(ctx, observability.OutcomeCancelled)
			return
		}
		p.metrics.RecordLogin(ctx, observability.OutcomeError)
		a.reject(err)
		return
	}
	op.End(observability.OutcomeSuccess, nil)
	p.metrics.RecordLogin(ctx, observability.OutcomeSuccess)
	a.log.Info("login succeeded", logger.Fields(logger.FieldUsername, username))

	a.username = username
	a.loginToken = t
	a.state = statePopulated
}

// readCredentials parses a JSON or form login body, capped at MaxLoginBody.
// Missing fields read as bad credentials so the response does not reveal
// which one was absent.
func (p *Pipeline) readCredentials(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	if r.Body == nil || r.Body == http.NoBody {
		return req, badCredentials()
	}
	r.Body = http.MaxBytesReader(w, r.Body, p.settings.MaxLoginBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mediaType == "application/json" {
		err = json.NewDecoder(r.Body).Decode(&req)
	} else {
		if err = r.ParseForm(); err == nil {
			req.Username = r.PostForm.Get("username")
			req.Password = r.PostForm.Get("password")
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, apperrors.New(apperrors.ErrCodeInvalidInput, "Request body too large.", http.StatusRequestEntityTooLarge)
		}
		return req, badCredentials()
	}

	v := validation.New().
		Required("username", req.Username).
		Required("password", req.Password)
	if v.HasErrors() {
		return req, badCredentials()
	}
	return req, nil
}

// respondLogin delivers the login token per LoginResponse and ends the request.
func (p *Pipeline) respondLogin(a *attempt) {
	if a.cancelled() {
		return
	}
	t := a.loginToken
	mode := p.settings.LoginResponse
	if mode.Cookie() {
		p.setCookie(a.w, t)
	}
	resp := LoginResponse{Username: t.Username, ExpiresAt: t.ExpiresAt.UnixMilli()}
	if mode.Body() {
		resp.AuthToken = t.String()
	}
	writeJSON(a.w, http.StatusOK, resp)
}

// isNil reports whether v is nil, including a nil pointer held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
