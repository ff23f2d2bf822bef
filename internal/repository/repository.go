// Package repository decides, per record kind, whether to serve stored records
// or scrape fresh ones, and merges what it scrapes into the store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"portalsync/internal/components/assert"
	"portalsync/internal/components/chrono"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/keychain"
	"portalsync/internal/model"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	report_fetch_tasks     = "fetch.tasks"
	report_fetch_timetable = "fetch.timetable"
	report_fetch_news      = "fetch.news"
	report_session         = "session"
	report_sync            = "sync"
)

// Source scrapes records with a session token.
type Source interface {
	Tasks(ctx context.Context, token string) ([]model.Task, error)
	Surveys(ctx context.Context, token string) ([]model.Task, error)
	Timetable(ctx context.Context, token string, year int, term string) ([]model.ClassCell, error)
	News(ctx context.Context, token string) ([]model.NewsItem, error)
}

type Repository struct {
	store   Store
	source  Source
	secrets keychain.Store
	time    chrono.TimeAPI
	tel     telemetry.API
}

func New(store Store, source Source, secrets keychain.Store, timeApi chrono.TimeAPI, tel telemetry.API) Repository {
	assert.NotNil(store)
	assert.NotNil(source)
	assert.NotNil(secrets)
	assert.NotNil(timeApi)
	assert.NotNil(tel)

	return Repository{
		store:   store,
		source:  source,
		secrets: secrets,
		time:    timeApi,
		tel:     telemetry.NewScopedAPI("repository", tel),
	}
}

func (r Repository) token(ctx context.Context) (string, error) {
	token, err := r.secrets.Get(ctx, keychain.SESSION_TOKEN)
	if errors.Is(err, model.ErrNotFound) || (err == nil && token == "") {
		return "", model.ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// scrapeFailed forgets the token when the portal no longer accepts it, the
// next fetch then asks for a new login.
func (r Repository) scrapeFailed(ctx context.Context, report string, err error) error {
	if errors.Is(err, model.ErrSessionExpired) {
		clearErr := r.secrets.Clear(ctx, keychain.SESSION_TOKEN)
		if clearErr != nil {
			r.tel.ReportBroken(report_session, fmt.Errorf("clear expired token: %w", clearErr))
		}
		r.tel.ReportWarning(report, err)
		return err
	}
	r.tel.ReportBroken(report, err)
	return err
}

// SaveSession stores the token of a successful login.
func (r Repository) SaveSession(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("empty session token")
	}
	return r.secrets.Set(ctx, keychain.SESSION_TOKEN, token)
}

// Logout forgets the session token, stored records are kept.
func (r Repository) Logout(ctx context.Context) error {
	return r.secrets.Clear(ctx, keychain.SESSION_TOKEN)
}

// LoggedIn reports whether a session token is stored.
func (r Repository) LoggedIn(ctx context.Context) (bool, error) {
	_, err := r.token(ctx)
	if errors.Is(err, model.ErrNotAuthenticated) {
		return false, nil
	}
	return err == nil, err
}

// dedupe keeps one task per id, a later duplicate replaces the earlier one in
// its original position.
func dedupe(tasks []model.Task) []model.Task {
	index := make(map[string]int, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if i, ok := index[t.Id]; ok {
			out[i] = t
			continue
		}
		index[t.Id] = len(out)
		out = append(out, t)
	}
	return out
}

// FetchTasks returns the task list, including surveys and manual tasks.
func (r Repository) FetchTasks(ctx context.Context, forceRefresh bool) ([]model.Task, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		count, err := r.store.ScrapedTaskCount(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return r.store.Tasks(ctx)
		}
	}

	var tasks, surveys []model.Task
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		tasks, err = r.source.Tasks(groupCtx, token)
		return err
	})
	group.Go(func() error {
		var err error
		surveys, err = r.source.Surveys(groupCtx, token)
		return err
	})
	err = group.Wait()
	if err != nil {
		return nil, r.scrapeFailed(ctx, report_fetch_tasks, err)
	}

	merged := dedupe(append(tasks, surveys...))
	r.tel.ReportCount(report_fetch_tasks, int64(len(merged)))

	err = r.store.UpsertScrapedTasks(ctx, merged)
	if err != nil {
		return nil, err
	}
	return r.store.Tasks(ctx)
}

// FetchTimetable returns the timetable of one academic year and term.
func (r Repository) FetchTimetable(ctx context.Context, year int, term string, forceRefresh bool) ([]model.ClassCell, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	title := model.TimetableTitle(year, term)

	if !forceRefresh {
		count, err := r.store.ScrapedClassCellCount(ctx, title)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return r.store.ClassCells(ctx, title)
		}
	}

	cells, err := r.source.Timetable(ctx, token, year, term)
	if err != nil {
		return nil, r.scrapeFailed(ctx, report_fetch_timetable, err)
	}
	r.tel.ReportCount(report_fetch_timetable, int64(len(cells)))

	// without a forced refresh there are no scraped cells to purge
	err = r.store.ReplaceScrapedClassCells(ctx, title, cells)
	if err != nil {
		return nil, err
	}
	return r.store.ClassCells(ctx, title)
}

// FetchNews returns the news list, items marked read stay read.
func (r Repository) FetchNews(ctx context.Context, forceRefresh bool) ([]model.NewsItem, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		count, err := r.store.NewsItemCount(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return r.store.NewsItems(ctx)
		}
	}

	items, err := r.source.News(ctx, token)
	if err != nil {
		return nil, r.scrapeFailed(ctx, report_fetch_news, err)
	}
	r.tel.ReportCount(report_fetch_news, int64(len(items)))

	err = r.store.UpsertNewsItems(ctx, items, forceRefresh)
	if err != nil {
		return nil, err
	}
	return r.store.NewsItems(ctx)
}

func (r Repository) MarkNewsRead(ctx context.Context, id string) error {
	return r.store.MarkNewsRead(ctx, id)
}

// NewTask is a task entered by hand.
type NewTask struct {
	Title     string
	ClassName string
	Type      model.TaskType
	Deadline  time.Time
	Url       string
	Color     string
}

func (r Repository) AddTask(ctx context.Context, input NewTask) (model.Task, error) {
	if input.Title == "" {
		return model.Task{}, fmt.Errorf("task title is required")
	}
	task := model.Task{
		Id:        "manual-" + uuid.NewString(),
		Title:     input.Title,
		ClassName: input.ClassName,
		Type:      input.Type,
		Deadline:  input.Deadline.UnixMilli(),
		Url:       input.Url,
		Color:     input.Color,
		Manual:    true,
	}
	err := r.store.InsertTask(ctx, task)
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (r Repository) SetTaskDone(ctx context.Context, id string, done bool) error {
	return r.store.SetTaskDone(ctx, id, done)
}

func (r Repository) SetTaskColor(ctx context.Context, id, color string) error {
	return r.store.SetTaskColor(ctx, id, color)
}

func (r Repository) DeleteTask(ctx context.Context, id string) error {
	return r.store.DeleteTask(ctx, id)
}

// AddClassCell stores a cell entered by hand, it never collides with a scraped
// cell in the same slot and survives forced refreshes.
func (r Repository) AddClassCell(ctx context.Context, cell model.ClassCell) (model.ClassCell, error) {
	if cell.Name == "" {
		return model.ClassCell{}, fmt.Errorf("class name is required")
	}
	if !cell.InGrid() {
		return model.ClassCell{}, fmt.Errorf(
			"period %d and day %d must be within 0-%d and 0-%d",
			cell.Period, cell.DayOfWeek, model.MAX_PERIOD, model.MAX_DAY_OF_WEEK,
		)
	}
	if cell.AcademicYear <= 0 {
		return model.ClassCell{}, fmt.Errorf("academic year %d must be positive", cell.AcademicYear)
	}
	if cell.Term == "" {
		return model.ClassCell{}, fmt.Errorf("term is required")
	}
	cell.IsUserGenerated = true
	cell.TimetableTitle = model.TimetableTitle(cell.AcademicYear, cell.Term)
	if cell.ClassId == "" {
		cell.ClassId = "manual-" + uuid.NewString()
	}
	err := r.store.InsertClassCell(ctx, cell)
	if err != nil {
		return model.ClassCell{}, err
	}
	return cell, nil
}

// DeleteClassCell removes a cell entered by hand.
func (r Repository) DeleteClassCell(ctx context.Context, year int, term string, period, dayOfWeek int) error {
	return r.store.DeleteClassCell(ctx, model.TimetableTitle(year, term), period, dayOfWeek, true)
}

// AcademicTerm is the academic year and term of t, the first term runs from
// April to September and the academic year starts in April.
func AcademicTerm(t time.Time) (int, string) {
	year := t.Year()
	switch {
	case t.Month() < time.April:
		return year - 1, "2"
	case t.Month() >= time.October:
		return year, "2"
	}
	return year, "1"
}

type SyncResult struct {
	Tasks      int
	ClassCells int
	News       int
}

// Sync force refreshes every record kind of the current term concurrently.
// Kinds that succeed are stored even when another fails.
func (r Repository) Sync(ctx context.Context) (SyncResult, error) {
	year, term := AcademicTerm(r.time.Now())

	var result SyncResult
	var taskErr, timetableErr, newsErr error
	wg := sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		tasks, err := r.FetchTasks(ctx, true)
		result.Tasks, taskErr = len(tasks), err
	}()
	go func() {
		defer wg.Done()
		cells, err := r.FetchTimetable(ctx, year, term, true)
		result.ClassCells, timetableErr = len(cells), err
	}()
	go func() {
		defer wg.Done()
		news, err := r.FetchNews(ctx, true)
		result.News, newsErr = len(news), err
	}()
	wg.Wait()

	err := errors.Join(taskErr, timetableErr, newsErr)
	if err != nil {
		r.tel.ReportWarning(report_sync, err)
	}
	return result, err
}
