package portal

import (
	"net/url"
	"portalsync/internal/components/assert"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/model"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const report_extract_row = "extract.row"

// ExtractContext carries what extractors need besides the markup.
type ExtractContext struct {
	// BaseUrl resolves relative links.
	BaseUrl *url.URL
	// Location interprets the portal's local timestamps.
	Location *time.Location
	Tel      telemetry.API
}

func (c ExtractContext) validate() {
	assert.NotNil(c.BaseUrl)
	assert.NotNil(c.Location)
	assert.NotNil(c.Tel)
}

// skipRow reports a row that could not be extracted, the rest of the page is
// still used.
func (c ExtractContext) skipRow(page string, row int, reason string) {
	c.Tel.ReportWarning(report_extract_row, model.ExtractionError{
		Page:   page,
		Row:    row,
		Reason: reason,
	})
}

// isLoginPage detects the portal answering with its login form, which happens
// once the session cookie is no longer accepted.
func isLoginPage(doc *goquery.Document) bool {
	return doc.Find(`#portal-login-form, form[action*="/portal/login"]`).Length() > 0
}

// parse reads a page and fails fast when it is the login page.
func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	if isLoginPage(doc) {
		return nil, model.ErrSessionExpired
	}
	return doc, nil
}

func pageError(page, reason string) error {
	return model.ExtractionError{Page: page, Row: model.WHOLE_PAGE, Reason: reason}
}

func parseDeadline(layout, value string, loc *time.Location) (int64, error) {
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
