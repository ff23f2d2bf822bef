package commands

import (
	"io"
	"portalsync/internal/model"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderTasks(out io.Writer, tasks []model.Task, loc *time.Location) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Done", "Deadline", "Type", "Class", "Title", "Id"})
	for _, task := range tasks {
		done := ""
		if task.Done {
			done = "✓"
		}
		deadline := ""
		if task.Deadline > 0 {
			deadline = task.DeadlineTime(loc).Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{done, deadline, task.Type.String(), task.ClassName, task.Title, task.Id})
	}
	t.Render()
}

var weekdays = [model.MAX_DAY_OF_WEEK + 1]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// renderTimetable draws the grid, a slot holding a scraped and a user
// generated cell shows both.
func renderTimetable(out io.Writer, cells []model.ClassCell) {
	var grid [model.MAX_PERIOD + 1][model.MAX_DAY_OF_WEEK + 1][]string
	lastPeriod := -1
	for _, c := range cells {
		if !c.InGrid() {
			continue
		}
		label := c.Name
		if c.Room != "" {
			label += "\n" + c.Room
		}
		if c.IsUserGenerated {
			label += " *"
		}
		grid[c.Period][c.DayOfWeek] = append(grid[c.Period][c.DayOfWeek], label)
		if c.Period > lastPeriod {
			lastPeriod = c.Period
		}
	}

	t := newTable(out)
	header := table.Row{"Period"}
	for _, day := range weekdays {
		header = append(header, day)
	}
	t.AppendHeader(header)
	for period := 0; period <= lastPeriod; period++ {
		row := table.Row{period + 1}
		for day := range weekdays {
			row = append(row, strings.Join(grid[period][day], "\n"))
		}
		t.AppendRow(row)
		t.AppendSeparator()
	}
	t.Render()
}

func renderNews(out io.Writer, news []model.NewsItem) {
	t := newTable(out)
	t.AppendHeader(table.Row{"", "Date", "Category", "Title", "Id"})
	for _, n := range news {
		marker := ""
		if n.Unread {
			marker = "●"
		}
		t.AppendRow(table.Row{marker, n.PublishedAt, n.Category, n.Title, n.Id})
	}
	t.Render()
}
