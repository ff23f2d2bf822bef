package db

import (
	"context"
)

const countScrapedTasks = `-- name: CountScrapedTasks :one
select count(*) from task where manual = 0
`

func (q *Queries) CountScrapedTasks(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countScrapedTasks)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getTasks = `-- name: GetTasks :many
select id, title, class_name, type, deadline, url, done, color, manual from task
order by deadline, id
`

func (q *Queries) GetTasks(ctx context.Context) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, getTasks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Task
	for rows.Next() {
		var i Task
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.ClassName,
			&i.Type,
			&i.Deadline,
			&i.Url,
			&i.Done,
			&i.Color,
			&i.Manual,
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

const getTask = `-- name: GetTask :one
select id, title, class_name, type, deadline, url, done, color, manual from task
where id = ?
`

func (q *Queries) GetTask(ctx context.Context, id string) (Task, error) {
	row := q.db.QueryRowContext(ctx, getTask, id)
	var i Task
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.ClassName,
		&i.Type,
		&i.Deadline,
		&i.Url,
		&i.Done,
		&i.Color,
		&i.Manual,
	)
	return i, err
}

const upsertScrapedTask = `-- name: UpsertScrapedTask :exec
insert into task (id, title, class_name, type, deadline, url, done, color, manual)
values (?, ?, ?, ?, ?, ?, ?, '', 0)
on conflict (id) do update set
    title = excluded.title,
    class_name = excluded.class_name,
    type = excluded.type,
    deadline = excluded.deadline,
    url = excluded.url,
    done = max(task.done, excluded.done)
where task.manual = 0
`

type UpsertScrapedTaskParams struct {
	ID        string
	Title     string
	ClassName string
	Type      int64
	Deadline  int64
	Url       string
	Done      bool
}

// UpsertScrapedTask leaves manual tasks, local colors and local completion untouched.
func (q *Queries) UpsertScrapedTask(ctx context.Context, arg UpsertScrapedTaskParams) error {
	_, err := q.db.ExecContext(ctx, upsertScrapedTask,
		arg.ID,
		arg.Title,
		arg.ClassName,
		arg.Type,
		arg.Deadline,
		arg.Url,
		arg.Done,
	)
	return err
}

const insertTask = `-- name: InsertTask :exec
insert into task (id, title, class_name, type, deadline, url, done, color, manual)
values (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertTaskParams struct {
	ID        string
	Title     string
	ClassName string
	Type      int64
	Deadline  int64
	Url       string
	Done      bool
	Color     string
	Manual    bool
}

func (q *Queries) InsertTask(ctx context.Context, arg InsertTaskParams) error {
	_, err := q.db.ExecContext(ctx, insertTask,
		arg.ID,
		arg.Title,
		arg.ClassName,
		arg.Type,
		arg.Deadline,
		arg.Url,
		arg.Done,
		arg.Color,
		arg.Manual,
	)
	return err
}

const setTaskDone = `-- name: SetTaskDone :execrows
update task set done = ? where id = ?
`

type SetTaskDoneParams struct {
	Done bool
	ID   string
}

func (q *Queries) SetTaskDone(ctx context.Context, arg SetTaskDoneParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setTaskDone, arg.Done, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setTaskColor = `-- name: SetTaskColor :execrows
update task set color = ? where id = ?
`

type SetTaskColorParams struct {
	Color string
	ID    string
}

func (q *Queries) SetTaskColor(ctx context.Context, arg SetTaskColorParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setTaskColor, arg.Color, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTask = `-- name: DeleteTask :execrows
delete from task where id = ?
`

func (q *Queries) DeleteTask(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTask, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
