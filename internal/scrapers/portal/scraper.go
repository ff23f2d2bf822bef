package portal

import (
	"context"
	"portalsync/internal/components/assert"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/model"
	"time"
)

// Scraper fetches portal pages and turns them into records.
type Scraper struct {
	client *Client
	ectx   ExtractContext
}

func NewScraper(client *Client, location *time.Location, tel telemetry.API) Scraper {
	assert.NotNil(client)
	assert.NotNil(location)
	assert.NotNil(tel)

	return Scraper{
		client: client,
		ectx: ExtractContext{
			BaseUrl:  client.BaseUrl,
			Location: location,
			Tel:      telemetry.NewScopedAPI("portal_scraper", tel),
		},
	}
}

func (s Scraper) Tasks(ctx context.Context, token string) ([]model.Task, error) {
	html, err := s.client.TaskPage(ctx, token)
	if err != nil {
		return nil, err
	}
	return ExtractTasks(html, s.ectx)
}

func (s Scraper) Surveys(ctx context.Context, token string) ([]model.Task, error) {
	html, err := s.client.SurveyPage(ctx, token)
	if err != nil {
		return nil, err
	}
	return ExtractSurveys(html, s.ectx)
}

func (s Scraper) Timetable(ctx context.Context, token string, year int, term string) ([]model.ClassCell, error) {
	html, err := s.client.TimetablePage(ctx, token, year, term)
	if err != nil {
		return nil, err
	}
	return ExtractTimetable(html, year, term, s.ectx)
}

func (s Scraper) News(ctx context.Context, token string) ([]model.NewsItem, error) {
	html, err := s.client.NewsPage(ctx, token)
	if err != nil {
		return nil, err
	}
	return ExtractNews(html, s.ectx)
}
