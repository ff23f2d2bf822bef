package portal

import (
	_ "embed"
	"net/url"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/model"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/tasks.html
var tasksHtml string

//go:embed testdata/timetable.html
var timetableHtml string

//go:embed testdata/surveys.html
var surveysHtml string

//go:embed testdata/news.html
var newsHtml string

//go:embed testdata/login.html
var loginHtml string

var tokyo = time.FixedZone("JST", 9*60*60)

func testContext(t *testing.T) (ExtractContext, *telemetry.TestingAPI) {
	base, err := url.Parse("https://portal.example.ac.jp")
	require.NoError(t, err)
	tel := telemetry.NewTestingAPI(t)
	return ExtractContext{BaseUrl: base, Location: tokyo, Tel: tel}, tel
}

func jst(year int, month time.Month, day, hour, minute int) int64 {
	return time.Date(year, month, day, hour, minute, 0, 0, tokyo).UnixMilli()
}

func TestExtractTasks(t *testing.T) {
	ctx, tel := testContext(t)
	tasks, err := ExtractTasks(tasksHtml, ctx)
	require.NoError(t, err)

	expected := []model.Task{
		{
			Id:        "assignment-C101-R1",
			Title:     "Week 3 report",
			ClassName: "Linear Algebra",
			Type:      model.TASK_ASSIGNMENT,
			Deadline:  jst(2024, time.May, 20, 23, 59),
			Url:       "https://portal.example.ac.jp/lms/task/detail?classId=C101&reportId=R1",
		},
		{
			Id:        "exam-C202-Q7",
			Title:     "Chapter 2 quiz",
			ClassName: "Statistics",
			Type:      model.TASK_EXAM,
			Deadline:  jst(2024, time.May, 22, 10, 0),
			Url:       "https://portal.example.ac.jp/lms/task/detail?classId=C202&reportId=Q7",
			Done:      true,
		},
		{
			Id:        "survey-C303-S2",
			Title:     "Mid-term feedback",
			ClassName: "English I",
			Type:      model.TASK_SURVEY,
			Deadline:  jst(2024, time.June, 1, 17, 0),
			Url:       "https://portal.example.ac.jp/lms/task/detail?classId=C303&reportId=S2",
			Done:      true,
		},
	}
	diff := cmp.Diff(expected, tasks)
	if diff != "" {
		t.Fatal("unexpected tasks", diff)
	}

	warnings := tel.Reports(telemetry.REPORT_WARNING)
	require.Len(t, warnings, 1)
	rowErr, ok := warnings[0].Params[0].(model.ExtractionError)
	require.True(t, ok)
	require.Equal(t, 3, rowErr.Row)
	require.False(t, rowErr.Fatal())
}

func TestExtractTasksMissingTable(t *testing.T) {
	ctx, _ := testContext(t)
	_, err := ExtractTasks(`<html><body><p>maintenance</p></body></html>`, ctx)

	var extractErr model.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.True(t, extractErr.Fatal())
}

func TestCategorize(t *testing.T) {
	table := []struct {
		category string
		expected model.TaskType
	}{
		{"Assignment", model.TASK_ASSIGNMENT},
		{"レポート", model.TASK_ASSIGNMENT},
		{"Final EXAM", model.TASK_EXAM},
		{"小テスト", model.TASK_EXAM},
		{"アンケート", model.TASK_SURVEY},
		{"Questionnaire", model.TASK_SURVEY},
		{"お知らせ", model.TASK_OTHER},
		{"", model.TASK_OTHER},
	}
	for _, row := range table {
		require.Equal(t, row.expected, categorize(row.category), row.category)
	}
}

func TestExtractTimetable(t *testing.T) {
	ctx, tel := testContext(t)
	cells, err := ExtractTimetable(timetableHtml, 2024, "1", ctx)
	require.NoError(t, err)

	expected := []model.ClassCell{
		{
			ClassId:        "C101",
			Period:         0,
			DayOfWeek:      0,
			TimetableTitle: "2024-1",
			Name:           "Linear Algebra",
			Teachers:       []string{"Tanaka", "Suzuki"},
			Room:           "A-201",
			AcademicYear:   2024,
			Term:           "1",
			Link:           "https://portal.example.ac.jp/syllabus?classId=C101",
			Credits:        2,
		},
		{
			ClassId:        "C202",
			Period:         0,
			DayOfWeek:      2,
			TimetableTitle: "2024-1",
			Name:           "Statistics",
			Teachers:       []string{"Sato"},
			Room:           "B-105",
			AcademicYear:   2024,
			Term:           "1",
		},
		{
			ClassId:        "C303",
			Period:         1,
			DayOfWeek:      4,
			TimetableTitle: "2024-1",
			Name:           "English I",
			Teachers:       []string{"Brown"},
			Room:           "Online",
			AcademicYear:   2024,
			Term:           "1",
		},
	}
	diff := cmp.Diff(expected, cells)
	if diff != "" {
		t.Fatal("unexpected cells", diff)
	}

	// the nameless cell, the cell without detail and the cell past the last day
	warnings := tel.Reports(telemetry.REPORT_WARNING)
	require.Len(t, warnings, 3)
	rows := []int{}
	for _, w := range warnings {
		rowErr, ok := w.Params[0].(model.ExtractionError)
		require.True(t, ok)
		require.False(t, rowErr.Fatal())
		rows = append(rows, rowErr.Row)
	}
	require.Equal(t, []int{8, 9, 14}, rows)
	require.Contains(t, warnings[1].Params[0].(model.ExtractionError).Reason, "no detail")
	require.Contains(t, warnings[2].Params[0].(model.ExtractionError).Reason, "outside the grid")
}

func TestExtractSurveys(t *testing.T) {
	ctx, tel := testContext(t)
	surveys, err := ExtractSurveys(surveysHtml, ctx)
	require.NoError(t, err)

	expected := []model.Task{
		{
			Id:        "survey-C101-501",
			Title:     "Class evaluation",
			ClassName: "Linear Algebra",
			Type:      model.TASK_SURVEY,
			Deadline:  jst(2024, time.July, 31, 23, 59),
			Url:       "https://portal.example.ac.jp/portal/surveys/answer?surveyId=501",
			Done:      true,
		},
		{
			Id:        "survey-C202-502",
			Title:     "Lab safety check",
			ClassName: "Statistics",
			Type:      model.TASK_SURVEY,
			Deadline:  jst(2024, time.June, 15, 12, 0),
			Url:       "https://portal.example.ac.jp/portal/surveys/answer?surveyId=502",
		},
	}
	diff := cmp.Diff(expected, surveys)
	if diff != "" {
		t.Fatal("unexpected surveys", diff)
	}
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING), 1)
}

func TestExtractNews(t *testing.T) {
	ctx, tel := testContext(t)
	news, err := ExtractNews(newsHtml, ctx)
	require.NoError(t, err)

	expected := []model.NewsItem{
		{
			Id:          "N1",
			SecondaryId: "S1",
			Title:       "Library closed on Monday",
			Category:    "Facilities",
			Domain:      "Library",
			PublishedAt: "2024/05/10",
			Tag:         "important",
			Unread:      true,
			Url:         "https://portal.example.ac.jp/portal/home/information/detail?id=N1",
		},
		{
			Id:          "N2",
			Title:       "Course registration opens",
			Category:    "Academic",
			Domain:      "Registrar",
			PublishedAt: "2024/05/12",
			Unread:      true,
			Url:         "https://portal.example.ac.jp/portal/home/information/detail?id=N2",
		},
	}
	diff := cmp.Diff(expected, news)
	if diff != "" {
		t.Fatal("unexpected news", diff)
	}
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING), 1)
}

func TestExtractNewsEmpty(t *testing.T) {
	ctx, _ := testContext(t)
	news, err := ExtractNews(`<html><body><ul class="news-list"></ul></body></html>`, ctx)
	require.NoError(t, err)
	require.Empty(t, news)
}

func TestExtractNewsMissingList(t *testing.T) {
	ctx, _ := testContext(t)
	news, err := ExtractNews(`<html><body><h1>Service maintenance</h1></body></html>`, ctx)
	require.Nil(t, news)

	var extractErr model.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.True(t, extractErr.Fatal())
	require.Equal(t, page_news, extractErr.Page)
}

func TestExtractorsDetectLoginPage(t *testing.T) {
	ctx, _ := testContext(t)

	_, err := ExtractTasks(loginHtml, ctx)
	require.ErrorIs(t, err, model.ErrSessionExpired)
	_, err = ExtractTimetable(loginHtml, 2024, "1", ctx)
	require.ErrorIs(t, err, model.ErrSessionExpired)
	_, err = ExtractSurveys(loginHtml, ctx)
	require.ErrorIs(t, err, model.ErrSessionExpired)
	_, err = ExtractNews(loginHtml, ctx)
	require.ErrorIs(t, err, model.ErrSessionExpired)

	// the marker wins over otherwise valid markup
	_, err = ExtractTasks(tasksHtml+`<form action="https://portal.example.ac.jp/portal/login"></form>`, ctx)
	require.ErrorIs(t, err, model.ErrSessionExpired)
}
