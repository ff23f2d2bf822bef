package portal

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"portalsync/internal/components/assert"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/model"
	"strconv"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_tasks     = "client.tasks"
	report_client_timetable = "client.timetable"
	report_client_surveys   = "client.surveys"
	report_client_news      = "client.news"
)

const (
	path_tasks     = "/lms/task"
	path_timetable = "/lms/timetable"
	path_surveys   = "/portal/surveys/list"
	path_news      = "/portal/home/information/list"
)

const max_redirects = 10

type ClientOptions struct {
	BaseUrl       string
	SessionCookie string
	UserAgent     string
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client fetches raw portal pages with a session token.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	cookie string
	tel    telemetry.API
}

// redirectPolicy follows redirects within the portal, a redirect anywhere else
// is the identity provider asking for a login and is handed back as is.
func redirectPolicy(host string) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) >= max_redirects {
			return fmt.Errorf("stopped after %d redirects", max_redirects)
		}
		if req.URL.Hostname() != host {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.SessionCookie)

	tel = telemetry.NewScopedAPI("portal_client", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	httpClient.SetRedirectPolicy(redirectPolicy(baseUrl.Hostname()))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		// a burst of at least 1 means no request is ever dropped
		burst := int(math.Max(1, math.Ceil(opts.RequestsPerSecond)))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		cookie:  opts.SessionCookie,
		tel:     tel,
	}, nil
}

func (c *Client) get(ctx context.Context, report, token, path string, query map[string]string) (string, error) {
	if token == "" {
		return "", model.ErrNotAuthenticated
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetCookie(&http.Cookie{Name: c.cookie, Value: token}).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		c.tel.ReportBroken(report, fmt.Errorf("fetch: %w", err), path)
		return "", model.NetworkError{Op: "fetch " + path, Err: err}
	}

	status := res.StatusCode()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", model.ErrSessionExpired
	case status >= 300 && status < 400:
		// sent off to the identity provider
		return "", model.ErrSessionExpired
	case status < 200 || status >= 300:
		c.tel.ReportWarning(report, fmt.Errorf("unexpected status %d", status), path)
		return "", model.NetworkError{Op: "fetch " + path, Status: status}
	}
	return res.String(), nil
}

func (c *Client) TaskPage(ctx context.Context, token string) (string, error) {
	return c.get(ctx, report_client_tasks, token, path_tasks, nil)
}

func (c *Client) TimetablePage(ctx context.Context, token string, year int, term string) (string, error) {
	return c.get(ctx, report_client_timetable, token, path_timetable, map[string]string{
		"year": strconv.Itoa(year),
		"term": term,
	})
}

func (c *Client) SurveyPage(ctx context.Context, token string) (string, error) {
	return c.get(ctx, report_client_surveys, token, path_surveys, nil)
}

func (c *Client) NewsPage(ctx context.Context, token string) (string, error) {
	return c.get(ctx, report_client_news, token, path_news, nil)
}
