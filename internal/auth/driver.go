package auth

import (
	"context"
	"net/http"
)

// CookieSource exposes the cookie jar of a browsing session.
type CookieSource interface {
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

// Driver is a browser-like agent the login flow is driven through.
// Any headless browser or http client with a cookie jar can implement it.
type Driver interface {
	CookieSource

	// Load navigates to url.
	Load(ctx context.Context, url string) error
	// Events delivers a snapshot every time a document finishes loading.
	Events() <-chan Page
	// Snapshot re-reads the current document, input values must be reflected
	// in their `value` attribute.
	Snapshot(ctx context.Context) (Page, error)
	Inject(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// Close releases the rendering resources, it is safe to call more than once.
	Close() error
}
