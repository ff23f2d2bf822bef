package portal

import (
	"fmt"
	"net/url"
	"portalsync/internal/model"
	"portalsync/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	page_surveys           = "surveys"
	survey_deadline_layout = "2006/01/02 15:04"
	survey_answer_path     = "/portal/surveys/answer"
)

func extractSurveyRow(ctx ExtractContext, row *goquery.Selection) (model.Task, error) {
	cells := row.Find("td")
	if cells.Length() < 6 {
		return model.Task{}, fmt.Errorf("expected at least 6 cells, got %d", cells.Length())
	}

	surveyId := htmlutil.Text(cells.Eq(0))
	classId := htmlutil.Text(cells.Eq(1))
	if surveyId == "" || classId == "" {
		return model.Task{}, fmt.Errorf("missing survey or class id")
	}
	title := htmlutil.OwnText(cells.Eq(3))
	if title == "" {
		return model.Task{}, fmt.Errorf("empty title")
	}
	deadline, err := parseDeadline(survey_deadline_layout, htmlutil.Text(cells.Eq(5)), ctx.Location)
	if err != nil {
		return model.Task{}, fmt.Errorf("deadline: %w", err)
	}

	answer := ctx.BaseUrl.ResolveReference(&url.URL{
		Path:     survey_answer_path,
		RawQuery: url.Values{"surveyId": {surveyId}}.Encode(),
	})

	return model.Task{
		Id:        model.TaskId(model.TASK_SURVEY, classId, surveyId),
		Title:     title,
		ClassName: htmlutil.Text(cells.Eq(4)),
		Type:      model.TASK_SURVEY,
		Deadline:  deadline,
		Url:       answer.String(),
		Done:      cells.Eq(2).Find("span.answered").Length() > 0,
	}, nil
}

// ExtractSurveys reads the survey list, every survey becomes a task.
func ExtractSurveys(html string, ctx ExtractContext) ([]model.Task, error) {
	ctx.validate()

	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table.survey-list")
	if table.Length() == 0 {
		return nil, pageError(page_surveys, "no survey list")
	}

	var surveys []model.Task
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		survey, err := extractSurveyRow(ctx, row)
		if err != nil {
			ctx.skipRow(page_surveys, i, err.Error())
			return
		}
		surveys = append(surveys, survey)
	})
	return surveys, nil
}
