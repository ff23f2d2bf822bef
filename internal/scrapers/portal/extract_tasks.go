package portal

import (
	"fmt"
	"portalsync/internal/model"
	"portalsync/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	page_tasks           = "tasks"
	task_deadline_layout = "2006-01-02 15:04"
)

var categoryKeywords = []struct {
	taskType model.TaskType
	keywords []string
}{
	{model.TASK_ASSIGNMENT, []string{"assignment", "report", "課題", "レポート"}},
	{model.TASK_EXAM, []string{"exam", "test", "quiz", "テスト", "小テスト"}},
	{model.TASK_SURVEY, []string{"survey", "questionnaire", "アンケート"}},
}

// categorize maps the portal's free text category to a task type.
func categorize(category string) model.TaskType {
	category = strings.ToLower(category)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(category, kw) {
				return c.taskType
			}
		}
	}
	return model.TASK_OTHER
}

func isSubmitted(row *goquery.Selection, status string) bool {
	if row.HasClass("submitted") {
		return true
	}
	status = strings.ToLower(status)
	return status == "submitted" || status == "提出済"
}

func extractTaskRow(ctx ExtractContext, row *goquery.Selection) (model.Task, error) {
	cells := row.Find("td")
	if cells.Length() < 4 {
		return model.Task{}, fmt.Errorf("expected at least 4 cells, got %d", cells.Length())
	}

	anchor := cells.Eq(1).Find("a").First()
	if anchor.Length() == 0 {
		return model.Task{}, fmt.Errorf("no title link")
	}
	link, ok := htmlutil.ResolveHref(ctx.BaseUrl, anchor)
	if !ok {
		return model.Task{}, fmt.Errorf("unparseable title link")
	}
	classId := htmlutil.QueryParam(ctx.BaseUrl, anchor, "classId")
	reportId := htmlutil.QueryParam(ctx.BaseUrl, anchor, "reportId")
	if classId == "" || reportId == "" {
		return model.Task{}, fmt.Errorf("title link %q is missing classId or reportId", link)
	}

	title := htmlutil.Text(anchor)
	if title == "" {
		return model.Task{}, fmt.Errorf("empty title")
	}

	deadline, err := parseDeadline(task_deadline_layout, htmlutil.Text(cells.Eq(3)), ctx.Location)
	if err != nil {
		return model.Task{}, fmt.Errorf("deadline: %w", err)
	}

	status := ""
	if cells.Length() > 4 {
		status = htmlutil.Text(cells.Eq(4))
	}

	taskType := categorize(htmlutil.Text(cells.Eq(0)))
	return model.Task{
		Id:        model.TaskId(taskType, classId, reportId),
		Title:     title,
		ClassName: htmlutil.Text(cells.Eq(2)),
		Type:      taskType,
		Deadline:  deadline,
		Url:       link.String(),
		Done:      isSubmitted(row, status),
	}, nil
}

// ExtractTasks reads the task list page. Rows that do not have the expected
// shape are reported and skipped.
func ExtractTasks(html string, ctx ExtractContext) ([]model.Task, error) {
	ctx.validate()

	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table.task-table")
	if table.Length() == 0 {
		return nil, pageError(page_tasks, "no task table")
	}

	var tasks []model.Task
	table.Find("tr.task-row").Each(func(i int, row *goquery.Selection) {
		task, err := extractTaskRow(ctx, row)
		if err != nil {
			ctx.skipRow(page_tasks, i, err.Error())
			return
		}
		tasks = append(tasks, task)
	})
	return tasks, nil
}
