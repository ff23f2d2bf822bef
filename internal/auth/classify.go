package auth

import (
	"net/http"
	"portalsync/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageKind is what a loaded page of the login flow represents.
type PageKind int

const (
	PAGE_UNKNOWN PageKind = iota
	PAGE_CREDENTIAL_ENTRY
	PAGE_PROVIDER_SELECTION
	PAGE_TWO_FACTOR_DISPLAY
	PAGE_ERROR_MESSAGE
	PAGE_AUTHENTICATED_LANDING
)

func (k PageKind) String() string {
	switch k {
	case PAGE_CREDENTIAL_ENTRY:
		return "credential-entry"
	case PAGE_PROVIDER_SELECTION:
		return "provider-selection"
	case PAGE_TWO_FACTOR_DISPLAY:
		return "two-factor-display"
	case PAGE_ERROR_MESSAGE:
		return "error-message"
	case PAGE_AUTHENTICATED_LANDING:
		return "authenticated-landing"
	}
	return "unknown"
}

// Page is a snapshot of the document currently loaded by a Driver.
type Page struct {
	Url  string
	Html string
}

// Selectors locate the elements of the identity provider's pages.
type Selectors struct {
	Username      string
	Password      string
	Submit        string
	Provider      string
	ErrorText     string
	TwoFactorCode string
}

// DefaultSelectors match an ADFS sign-in page with home realm discovery and
// number matching two-factor prompts.
func DefaultSelectors() Selectors {
	return Selectors{
		Username:      "#userNameInput",
		Password:      "#passwordInput",
		Submit:        "#submitButton",
		Provider:      "#bySelection div.idp, a.provider-link",
		ErrorText:     "#errorText, .alert-error",
		TwoFactorCode: "#idRichContext_DisplaySign, .display-sign",
	}
}

// WithOverrides replaces every selector that is set in override.
func (s Selectors) WithOverrides(override Selectors) Selectors {
	pick := func(current, next string) string {
		if next != "" {
			return next
		}
		return current
	}
	return Selectors{
		Username:      pick(s.Username, override.Username),
		Password:      pick(s.Password, override.Password),
		Submit:        pick(s.Submit, override.Submit),
		Provider:      pick(s.Provider, override.Provider),
		ErrorText:     pick(s.ErrorText, override.ErrorText),
		TwoFactorCode: pick(s.TwoFactorCode, override.TwoFactorCode),
	}
}

type ClassifyOptions struct {
	Selectors     Selectors
	LandingPrefix string
	SessionCookie string
	// CodeReported is set once the two-factor code of the current attempt was surfaced.
	CodeReported bool
}

type Classification struct {
	Kind PageKind
	// Message is set for PAGE_ERROR_MESSAGE.
	Message string
	// Code is set for PAGE_TWO_FACTOR_DISPLAY.
	Code string
}

func findCookie(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c != nil && c.Name == name && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func firstNonEmptyText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	var text string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = htmlutil.Text(s)
		return text == ""
	})
	return text
}

// Classify determines which state of the login flow a page represents.
//
// The checks run in a fixed order and the first match wins, pages can still
// carry stale markup of a previous step.
func Classify(page Page, cookies []*http.Cookie, opts ClassifyOptions) (Classification, error) {
	if opts.LandingPrefix != "" && strings.HasPrefix(page.Url, opts.LandingPrefix) {
		return Classification{Kind: PAGE_AUTHENTICATED_LANDING}, nil
	}
	if opts.SessionCookie != "" && findCookie(cookies, opts.SessionCookie) != "" {
		return Classification{Kind: PAGE_AUTHENTICATED_LANDING}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Html))
	if err != nil {
		return Classification{}, err
	}
	sel := opts.Selectors

	if message := firstNonEmptyText(doc, sel.ErrorText); message != "" {
		return Classification{Kind: PAGE_ERROR_MESSAGE, Message: message}, nil
	}

	if !opts.CodeReported {
		if code := firstNonEmptyText(doc, sel.TwoFactorCode); code != "" {
			return Classification{Kind: PAGE_TWO_FACTOR_DISPLAY, Code: code}, nil
		}
	}

	if sel.Provider != "" && doc.Find(sel.Provider).Length() > 0 {
		return Classification{Kind: PAGE_PROVIDER_SELECTION}, nil
	}

	if sel.Username != "" && sel.Password != "" {
		username := doc.Find(sel.Username).First()
		password := doc.Find(sel.Password).First()
		if username.Length() > 0 && password.Length() > 0 &&
			strings.TrimSpace(username.AttrOr("value", "")) == "" {
			return Classification{Kind: PAGE_CREDENTIAL_ENTRY}, nil
		}
	}

	return Classification{Kind: PAGE_UNKNOWN}, nil
}

// Classifier is Classify with the "code already reported" flag scoped to one
// login attempt.
type Classifier struct {
	opts ClassifyOptions
}

func NewClassifier(selectors Selectors, landingPrefix, sessionCookie string) *Classifier {
	return &Classifier{opts: ClassifyOptions{
		Selectors:     selectors,
		LandingPrefix: landingPrefix,
		SessionCookie: sessionCookie,
	}}
}

func (c *Classifier) Classify(page Page, cookies []*http.Cookie) (Classification, error) {
	result, err := Classify(page, cookies, c.opts)
	if err != nil {
		return Classification{}, err
	}
	if result.Kind == PAGE_TWO_FACTOR_DISPLAY {
		c.opts.CodeReported = true
	}
	return result, nil
}
