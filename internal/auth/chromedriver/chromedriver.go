// Package chromedriver drives the login flow through a headless Chrome.
package chromedriver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"portalsync/internal/auth"
	"portalsync/internal/components/telemetry"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	report_snapshot = "chromedriver.snapshot"
	report_close    = "chromedriver.close"
)

// reflects typed input values into their attributes so serialized markup
// shows what was filled in
const syncInputValues = `document.querySelectorAll("input").forEach(function (el) {
	el.setAttribute("value", el.value);
})`

var ErrClosed = errors.New("browser closed")

type Options struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

type Driver struct {
	tel         telemetry.API
	ctx         context.Context
	allocCancel context.CancelFunc
	events      chan auth.Page
	closeOnce   sync.Once
}

var _ auth.Driver = (*Driver)(nil)

// New launches a browser with a fresh profile, every login attempt should use
// its own Driver.
func New(opts Options, tel telemetry.API) (*Driver, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, _ := chromedp.NewContext(allocCtx)

	// starts the browser
	err := chromedp.Run(ctx)
	if err != nil {
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	d := &Driver{
		tel:         telemetry.NewScopedAPI("chromedriver", tel),
		ctx:         ctx,
		allocCancel: allocCancel,
		events:      make(chan auth.Page, 8),
	}
	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			// listeners must not block the event loop
			go d.publish()
		}
	})
	return d, nil
}

func (d *Driver) publish() {
	ctx, cancel := context.WithTimeout(d.ctx, 10*time.Second)
	defer cancel()
	snapshot, err := d.Snapshot(ctx)
	if err != nil {
		if d.ctx.Err() == nil {
			d.tel.ReportWarning(report_snapshot, err)
		}
		return
	}
	select {
	case d.events <- snapshot:
	case <-d.ctx.Done():
	}
}

// run executes actions on the browser tab, bounded by both the tab and ctx.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	if d.ctx.Err() != nil {
		return ErrClosed
	}
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (d *Driver) Load(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *Driver) Events() <-chan auth.Page {
	return d.events
}

func (d *Driver) Snapshot(ctx context.Context) (auth.Page, error) {
	var location, html string
	err := d.run(
		ctx,
		chromedp.Evaluate(syncInputValues, nil),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return auth.Page{}, err
	}
	return auth.Page{Url: location, Html: html}, nil
}

func (d *Driver) Inject(ctx context.Context, selector, value string) error {
	return d.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (d *Driver) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return convertCookies(cookies), nil
}

func convertCookies(cookies []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		converted := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		// session cookies carry a negative expiry
		if c.Expires > 0 {
			converted.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, converted)
	}
	return out
}

func (d *Driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = chromedp.Cancel(d.ctx)
		d.allocCancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			d.tel.ReportWarning(report_close, err)
		}
	})
	return err
}
