package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

const DEFAULT_POLL_INTERVAL = 2 * time.Second

var ErrPollingActive = errors.New("session polling already active")

// Poller waits for the session cookie to show up in a cookie jar, the cookie is
// set asynchronously after the identity provider redirects back.
type Poller struct {
	source CookieSource
	name   string
	active atomic.Bool
}

func NewPoller(source CookieSource, cookieName string) *Poller {
	return &Poller{source: source, name: cookieName}
}

func (p *Poller) check(ctx context.Context) (string, error) {
	cookies, err := p.source.Cookies(ctx)
	if err != nil {
		return "", err
	}
	return findCookie(cookies, p.name), nil
}

// Active reports whether a Poll call is in progress.
func (p *Poller) Active() bool {
	return p.active.Load()
}

// Poll checks the jar immediately and then every interval until the cookie
// appears or timeout elapses. found is false without an error when the wait
// timed out. A call made while another is in progress returns ErrPollingActive
// and does not start a timer. Every call starts a fresh bounded wait.
func (p *Poller) Poll(ctx context.Context, timeout, interval time.Duration) (token string, found bool, err error) {
	if !p.active.CompareAndSwap(false, true) {
		return "", false, ErrPollingActive
	}
	defer p.active.Store(false)

	if interval <= 0 {
		interval = DEFAULT_POLL_INTERVAL
	}

	token, err = p.check(ctx)
	if err != nil {
		return "", false, err
	}
	if token != "" {
		return token, true, nil
	}
	if timeout <= 0 {
		return "", false, nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-deadline.C:
			return "", false, nil
		case <-ticker.C:
			token, err = p.check(ctx)
			if err != nil {
				return "", false, err
			}
			if token != "" {
				return token, true, nil
			}
		}
	}
}
