package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// step is one page of a scripted login flow.
type step struct {
	page Page
	// filled is served by Snapshot once the username was injected.
	filled string
	// advanceOn moves to the next step when this selector is clicked.
	advanceOn string
	// advanceAfter moves to the next step after a delay, like a second factor
	// confirmed on another device.
	advanceAfter time.Duration
	// cookieAfter sets the session cookie this long after the step is shown.
	cookieAfter time.Duration
}

type fakeDriver struct {
	lock     sync.Mutex
	steps    []step
	current  int
	events   chan Page
	injected map[string]string
	clicks   []string
	cookieAt time.Time
	token    string
	closed   bool
}

func newFakeDriver(token string, steps ...step) *fakeDriver {
	return &fakeDriver{
		steps:    steps,
		events:   make(chan Page, 16),
		injected: map[string]string{},
		token:    token,
	}
}

// show must be called with the lock held.
func (d *fakeDriver) show(idx int) {
	d.current = idx
	s := d.steps[idx]
	if s.cookieAfter > 0 {
		d.cookieAt = time.Now().Add(s.cookieAfter)
	}
	d.events <- s.page
	if s.advanceAfter > 0 && idx+1 < len(d.steps) {
		time.AfterFunc(s.advanceAfter, func() {
			d.lock.Lock()
			defer d.lock.Unlock()
			if !d.closed && d.current == idx {
				d.show(idx + 1)
			}
		})
	}
}

func (d *fakeDriver) Load(ctx context.Context, url string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.show(0)
	return nil
}

func (d *fakeDriver) Events() <-chan Page {
	return d.events
}

func (d *fakeDriver) Snapshot(ctx context.Context) (Page, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	s := d.steps[d.current]
	if s.filled != "" && d.injected[DefaultSelectors().Username] != "" {
		return Page{Url: s.page.Url, Html: s.filled}, nil
	}
	return s.page, nil
}

func (d *fakeDriver) Inject(ctx context.Context, selector, value string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.injected[selector] = value
	return nil
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.clicks = append(d.clicks, selector)
	s := d.steps[d.current]
	if s.advanceOn != "" && strings.Contains(selector, s.advanceOn) && d.current+1 < len(d.steps) {
		d.show(d.current + 1)
	}
	return nil
}

func (d *fakeDriver) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.cookieAt.IsZero() || time.Now().Before(d.cookieAt) {
		return []*http.Cookie{{Name: "lang", Value: "ja"}}, nil
	}
	return []*http.Cookie{
		{Name: "lang", Value: "ja"},
		{Name: "SESSION", Value: d.token},
	}, nil
}

func (d *fakeDriver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) isClosed() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.closed
}

func (d *fakeDriver) injectedValues() map[string]string {
	d.lock.Lock()
	defer d.lock.Unlock()
	out := map[string]string{}
	for k, v := range d.injected {
		out[k] = v
	}
	return out
}
