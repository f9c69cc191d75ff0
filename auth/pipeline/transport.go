package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/kbukum/authtoken/auth/token"
)

// source is where a token was found.
type source string

const (
	sourceNone   source = ""
	sourceCookie source = "cookie"
	sourceQuery  source = "query"
	sourceBody   source = "body"
	sourceHeader source = "header"
)

// locateToken looks for a token in the cookie, then the query string, then
// the body. The body is left readable for the next handler.
func (p *Pipeline) locateToken(r *http.Request) (string, source) {
	if c, err := r.Cookie(p.settings.Cookie.Name); err == nil && c.Value != "" {
		return c.Value, sourceCookie
	}
	if v := r.URL.Query().Get(p.settings.Param); v != "" {
		return v, sourceQuery
	}
	if v := p.bodyParam(r); v != "" {
		return v, sourceBody
	}
	return "", sourceNone
}

// bodyParam reads the token parameter from a form or JSON body.
func (p *Pipeline) bodyParam(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return ""
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return r.PostFormValue(p.settings.Param)
	case "application/json":
		return p.jsonParam(r)
	}
	return ""
}

// jsonParam peeks at a JSON body and restores it. Bodies larger than
// MaxLoginBody are not inspected.
func (p *Pipeline) jsonParam(r *http.Request) string {
	limit := p.settings.MaxLoginBody
	buf, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	r.Body = restoreBody(buf, r.Body)
	if err != nil || int64(len(buf)) > limit {
		return ""
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(buf, &fields) != nil {
		return ""
	}
	var v string
	if raw, ok := fields[p.settings.Param]; ok && json.Unmarshal(raw, &v) == nil {
		return v
	}
	return ""
}

type readCloser struct {
	io.Reader
	io.Closer
}

func restoreBody(consumed []byte, rest io.ReadCloser) io.ReadCloser {
	return readCloser{Reader: io.MultiReader(bytes.NewReader(consumed), rest), Closer: rest}
}

// setCookie writes t as the auth cookie.
func (p *Pipeline) setCookie(w http.ResponseWriter, t token.Token) {
	cs := p.settings.Cookie
	http.SetCookie(w, &http.Cookie{
		Name:     cs.Name,
		Value:    t.String(),
		Path:     cs.Path,
		Domain:   cs.Domain,
		Expires:  t.ExpiresAt.UTC(),
		MaxAge:   int(p.settings.Lifetime / time.Second),
		Secure:   cs.Secure,
		HttpOnly: cs.HTTPOnly,
		SameSite: cs.SameSite,
	})
}

// clearCookie tells the client to drop the auth cookie.
func (p *Pipeline) clearCookie(w http.ResponseWriter) {
	cs := p.settings.Cookie
	http.SetCookie(w, &http.Cookie{
		Name:     cs.Name,
		Value:    "",
		Path:     cs.Path,
		Domain:   cs.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   cs.Secure,
		HttpOnly: cs.HTTPOnly,
		SameSite: cs.SameSite,
	})
}

// deliverRenewal hands a renewed token back over the transport the old one
// came in on: cookies are replaced, anything else gets the renew header.
func (p *Pipeline) deliverRenewal(w http.ResponseWriter, src source, t token.Token) source {
	if src == sourceCookie {
		p.setCookie(w, t)
		return sourceCookie
	}
	w.Header().Set(p.settings.RenewHeader, t.String())
	return sourceHeader
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
