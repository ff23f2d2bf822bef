package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPortal(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	authed := func(page string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("SESSION")
			if err != nil || cookie.Value != "good-token" {
				// the portal answers expired sessions with its login form
				w.Write([]byte(loginHtml))
				return
			}
			w.Header().Set("content-type", "text/html; charset=utf-8")
			w.Write([]byte(page))
		}
	}
	mux.HandleFunc("/lms/task", authed(tasksHtml))
	mux.HandleFunc("/portal/surveys/list", authed(surveysHtml))
	mux.HandleFunc("/portal/home/information/list", authed(newsHtml))
	mux.HandleFunc("/lms/timetable", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("year") != "2024" || r.URL.Query().Get("term") != "1" {
			http.Error(w, "no such timetable", http.StatusNotFound)
			return
		}
		authed(timetableHtml)(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestScraper(t *testing.T, baseUrl string) Scraper {
	tel := telemetry.NewTestingAPI(t)
	client, err := NewClient(ClientOptions{
		BaseUrl:           baseUrl,
		SessionCookie:     "SESSION",
		UserAgent:         "portalsync-test",
		RequestsPerSecond: 100,
		Timeout:           5 * time.Second,
	}, tel)
	require.NoError(t, err)
	return NewScraper(client, tokyo, tel)
}

func TestScraper(t *testing.T) {
	server := newTestPortal(t)
	scraper := newTestScraper(t, server.URL)
	ctx := context.Background()

	tasks, err := scraper.Tasks(ctx, "good-token")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, server.URL+"/lms/task/detail?classId=C101&reportId=R1", tasks[0].Url)

	surveys, err := scraper.Surveys(ctx, "good-token")
	require.NoError(t, err)
	require.Len(t, surveys, 2)

	cells, err := scraper.Timetable(ctx, "good-token", 2024, "1")
	require.NoError(t, err)
	require.Len(t, cells, 3)

	news, err := scraper.News(ctx, "good-token")
	require.NoError(t, err)
	require.Len(t, news, 2)
}

func TestScraperExpiredSession(t *testing.T) {
	server := newTestPortal(t)
	scraper := newTestScraper(t, server.URL)

	_, err := scraper.Tasks(context.Background(), "stale-token")
	require.ErrorIs(t, err, model.ErrSessionExpired)
	_, err = scraper.Tasks(context.Background(), "")
	require.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestClientStatusCodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lms/task", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/portal/surveys/list", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://sts.example.ac.jp/adfs/ls/?idp=portal", http.StatusFound)
	})
	mux.HandleFunc("/portal/home/information/list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestScraper(t, server.URL).client
	ctx := context.Background()

	_, err := client.TaskPage(ctx, "tok")
	require.ErrorIs(t, err, model.ErrSessionExpired)

	_, err = client.SurveyPage(ctx, "tok")
	require.ErrorIs(t, err, model.ErrSessionExpired)

	_, err = client.NewsPage(ctx, "tok")
	var netErr model.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.StatusBadGateway, netErr.Status)
}
