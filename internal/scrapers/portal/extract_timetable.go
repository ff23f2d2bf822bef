package portal

import (
	"fmt"
	"portalsync/internal/model"
	"portalsync/pkg/htmlutil"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

const page_timetable = "timetable"

func extractClassCell(ctx ExtractContext, cell *goquery.Selection) (model.ClassCell, error) {
	header := cell.Find("div.class-header").First()
	name := htmlutil.Text(header.Find("span.class-name"))
	classId := htmlutil.Text(header.Find("span.class-id"))
	if name == "" || classId == "" {
		return model.ClassCell{}, fmt.Errorf("class header is missing a name or id")
	}

	detail := cell.Find("div.class-detail").First()
	if detail.Length() == 0 {
		return model.ClassCell{}, fmt.Errorf("class cell has no detail")
	}
	var teachers []string
	detail.Find("span.teacher").Each(func(_ int, s *goquery.Selection) {
		teacher := htmlutil.Text(s)
		if teacher != "" {
			teachers = append(teachers, teacher)
		}
	})

	result := model.ClassCell{
		ClassId:  classId,
		Name:     name,
		Room:     htmlutil.Text(detail.Find("span.room")),
		Teachers: teachers,
	}

	if credits := htmlutil.Text(cell.Find("span.credits")); credits != "" {
		parsed, err := strconv.Atoi(credits)
		if err != nil {
			return model.ClassCell{}, fmt.Errorf("credits %q: %w", credits, err)
		}
		result.Credits = parsed
	}
	if link, ok := htmlutil.ResolveHref(ctx.BaseUrl, cell.Find("a.syllabus").First()); ok {
		result.Link = link.String()
	}
	return result, nil
}

// ExtractTimetable reads the timetable grid of one academic year and term, the
// row index is the period and the column index is the day of the week.
func ExtractTimetable(html string, year int, term string, ctx ExtractContext) ([]model.ClassCell, error) {
	ctx.validate()

	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table.timetable")
	if table.Length() == 0 {
		return nil, pageError(page_timetable, "no timetable")
	}

	title := model.TimetableTitle(year, term)
	var cells []model.ClassCell
	table.Find("tbody tr").Each(func(period int, row *goquery.Selection) {
		row.Find("td").Each(func(day int, td *goquery.Selection) {
			content := td.Find("div.class-cell").First()
			if content.Length() == 0 {
				return
			}
			index := period*(model.MAX_DAY_OF_WEEK+1) + day

			cell, err := extractClassCell(ctx, content)
			if err != nil {
				ctx.skipRow(page_timetable, index, err.Error())
				return
			}
			cell.Period = period
			cell.DayOfWeek = day
			cell.TimetableTitle = title
			cell.AcademicYear = year
			cell.Term = term

			if !cell.InGrid() {
				ctx.skipRow(page_timetable, index, fmt.Sprintf(
					"cell at period %d day %d is outside the grid", period, day,
				))
				return
			}
			cells = append(cells, cell)
		})
	})
	return cells, nil
}
