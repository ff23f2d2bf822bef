package db

import (
	"context"
)

const countScrapedClassCells = `-- name: CountScrapedClassCells :one
select count(*) from class_cell where timetable_title = ? and is_user_generated = 0
`

func (q *Queries) CountScrapedClassCells(ctx context.Context, timetableTitle string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countScrapedClassCells, timetableTitle)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getClassCells = `-- name: GetClassCells :many
select class_id, period, day_of_week, is_user_generated, timetable_title, name, teachers, room, academic_year, term, link, note, credits from class_cell
where timetable_title = ?
order by period, day_of_week, is_user_generated
`

func (q *Queries) GetClassCells(ctx context.Context, timetableTitle string) ([]ClassCell, error) {
	rows, err := q.db.QueryContext(ctx, getClassCells, timetableTitle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ClassCell
	for rows.Next() {
		var i ClassCell
		if err := rows.Scan(
			&i.ClassID,
			&i.Period,
			&i.DayOfWeek,
			&i.IsUserGenerated,
			&i.TimetableTitle,
			&i.Name,
			&i.Teachers,
			&i.Room,
			&i.AcademicYear,
			&i.Term,
			&i.Link,
			&i.Note,
			&i.Credits,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteScrapedClassCells = `-- name: DeleteScrapedClassCells :exec
delete from class_cell where timetable_title = ? and is_user_generated = 0
`

func (q *Queries) DeleteScrapedClassCells(ctx context.Context, timetableTitle string) error {
	_, err := q.db.ExecContext(ctx, deleteScrapedClassCells, timetableTitle)
	return err
}

const deleteClassCell = `-- name: DeleteClassCell :execrows
delete from class_cell
where timetable_title = ? and period = ? and day_of_week = ? and is_user_generated = ?
`

type DeleteClassCellParams struct {
	TimetableTitle  string
	Period          int64
	DayOfWeek       int64
	IsUserGenerated bool
}

// DeleteClassCell frees a slot of the grid.
func (q *Queries) DeleteClassCell(ctx context.Context, arg DeleteClassCellParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteClassCell,
		arg.TimetableTitle,
		arg.Period,
		arg.DayOfWeek,
		arg.IsUserGenerated,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertClassCell = `-- name: InsertClassCell :exec
insert into class_cell (
    class_id, period, day_of_week, is_user_generated, timetable_title,
    name, teachers, room, academic_year, term, link, note, credits
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertClassCellParams struct {
	ClassID         string
	Period          int64
	DayOfWeek       int64
	IsUserGenerated bool
	TimetableTitle  string
	Name            string
	Teachers        string
	Room            string
	AcademicYear    int64
	Term            string
	Link            string
	Note            string
	Credits         int64
}

func (q *Queries) InsertClassCell(ctx context.Context, arg InsertClassCellParams) error {
	_, err := q.db.ExecContext(ctx, insertClassCell,
		arg.ClassID,
		arg.Period,
		arg.DayOfWeek,
		arg.IsUserGenerated,
		arg.TimetableTitle,
		arg.Name,
		arg.Teachers,
		arg.Room,
		arg.AcademicYear,
		arg.Term,
		arg.Link,
		arg.Note,
		arg.Credits,
	)
	return err
}
