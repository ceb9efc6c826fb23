package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRejected marks an application-level rejection (ok: false).
var ErrRejected = errors.New("rejected by server")

const maxResponseBytes = 4 << 20

// Sender performs one round trip for an action.
type Sender interface {
	Send(ctx context.Context, endpoint string, a Action) (Result, error)
}

// RejectedError carries the server's error code for an ok:false response.
type RejectedError struct {
	Action string
	Status int
	Code   string
}

func (e *RejectedError) Error() string {
	code := e.Code
	if code == "" {
		code = "unknown"
	}
	return fmt.Sprintf("%s: %s (%s, http %d)", e.Action, ErrRejected, code, e.Status)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Channel posts actions to endpoints relative to a base URL.
//
// Every failure yields Result{OK: false} together with a non-nil error.
// Nothing is retried or queued.
type Channel struct {
	base   *url.URL
	client *http.Client
	tokens  TokenSource
	logger  *slog.Logger
	timeout time.Duration
}

type Option func(*Channel)

// WithHTTPClient replaces the default client. A client without a cookie
// jar gets one, since the anti-forgery token lives in a cookie.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Channel) { ch.client = c }
}

func WithTokenSource(ts TokenSource) Option {
	return func(ch *Channel) { ch.tokens = ts }
}

func WithLogger(l *slog.Logger) Option {
	return func(ch *Channel) { ch.logger = l }
}

// WithTimeout bounds each round trip, whichever client is used.
func WithTimeout(d time.Duration) Option {
	return func(ch *Channel) { ch.timeout = d }
}

func NewChannel(baseURL string, opts ...Option) (*Channel, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q: scheme and host required", baseURL)
	}
	ch := &Channel{
		base:   base,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(ch)
	}
	if ch.timeout > 0 {
		ch.client.Timeout = ch.timeout
	}
	if ch.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		ch.client.Jar = jar
	}
	if ch.tokens == nil {
		ch.tokens = CookieTokenSource{Jar: ch.client.Jar}
	}
	return ch, nil
}

func (c *Channel) Send(ctx context.Context, endpoint string, a Action) (Result, error) {
	u, err := c.base.Parse(endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("%s: endpoint %q: %w", a, endpoint, err)
	}
	body, err := json.Marshal(a)
	if err != nil {
		return Result{}, fmt.Errorf("%s: encode: %w", a, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%s: new request: %w", a, err)
	}
	reqID := uuid.NewString()
	tok := c.tokens.Lookup(u)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CSRFHeader, tok.Token)
	req.Header.Set("X-Request-ID", reqID)

	log := c.logger.With("action", a.String(), "endpoint", u.Path, "request_id", reqID)
	log.Debug("sending", "csrf_source", tok.Source)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("transport failure", "error", err)
		return Result{}, fmt.Errorf("%s: %w", a, err)
	}
	defer resp.Body.Close()

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&res); err != nil {
		log.Warn("unreadable response", "status", resp.StatusCode, "error", err)
		return Result{}, fmt.Errorf("%s: decode response (http %d): %w", a, resp.StatusCode, err)
	}
	if !res.OK {
		log.Warn("rejected", "status", resp.StatusCode, "code", res.Error)
		return Result{OK: false, Error: res.Error}, &RejectedError{Action: a.String(), Status: resp.StatusCode, Code: res.Error}
	}
	log.Debug("ok", "status", resp.StatusCode, "elapsed", time.Since(start))
	return res, nil
}
