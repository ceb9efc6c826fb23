package remote

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// CSRFCookieName is the cookie the authority stores its anti-forgery token in.
	CSRFCookieName = "csrftoken"
	// CSRFHeader echoes the token back on every request.
	CSRFHeader = "X-CSRFToken"
)

// TokenInfo is a resolved anti-forgery token and where it came from.
type TokenInfo struct {
	Token  string
	Source string // "config" | "cookie" | ""
}

// TokenSource resolves the token to send with a request to u.
type TokenSource interface {
	Lookup(u *url.URL) TokenInfo
}

// CookieTokenSource reads the token from a cookie jar, unless a fixed
// token was configured.
type CookieTokenSource struct {
	Jar      http.CookieJar
	Override string
}

func (s CookieTokenSource) Lookup(u *url.URL) TokenInfo {
	// 1) explicit override
	if v := strings.TrimSpace(s.Override); v != "" {
		return TokenInfo{Token: v, Source: "config"}
	}
	// 2) cookie store
	if s.Jar == nil || u == nil {
		return TokenInfo{}
	}
	if v := tokenFromCookies(s.Jar.Cookies(u)); v != "" {
		return TokenInfo{Token: v, Source: "cookie"}
	}
	// absent: send an empty token and let the server decide
	return TokenInfo{}
}

func tokenFromCookies(cookies []*http.Cookie) string {
	for _, c := range cookies {
		if strings.TrimSpace(c.Name) == CSRFCookieName {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}
