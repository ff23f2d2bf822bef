package repository

import (
	"context"
	"encoding/json"
	"portalsync/internal/components/assert"
	"portalsync/internal/db"
	"portalsync/internal/model"
)

// Store persists records, it is the source of truth across restarts.
type Store interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	ScrapedTaskCount(ctx context.Context) (int64, error)
	// UpsertScrapedTasks never touches manual tasks and never reverts local
	// completion or color.
	UpsertScrapedTasks(ctx context.Context, tasks []model.Task) error
	InsertTask(ctx context.Context, task model.Task) error
	SetTaskDone(ctx context.Context, id string, done bool) error
	SetTaskColor(ctx context.Context, id, color string) error
	DeleteTask(ctx context.Context, id string) error

	ClassCells(ctx context.Context, timetableTitle string) ([]model.ClassCell, error)
	ScrapedClassCellCount(ctx context.Context, timetableTitle string) (int64, error)
	// ReplaceScrapedClassCells purges the scraped cells of the timetable and
	// inserts cells in their place, user generated cells stay.
	ReplaceScrapedClassCells(ctx context.Context, timetableTitle string, cells []model.ClassCell) error
	InsertClassCell(ctx context.Context, cell model.ClassCell) error
	DeleteClassCell(ctx context.Context, timetableTitle string, period, dayOfWeek int, userGenerated bool) error

	NewsItems(ctx context.Context) ([]model.NewsItem, error)
	NewsItemCount(ctx context.Context) (int64, error)
	// UpsertNewsItems keeps the read state of stored items, replace drops
	// items no longer listed.
	UpsertNewsItems(ctx context.Context, items []model.NewsItem, replace bool) error
	MarkNewsRead(ctx context.Context, id string) error
}

// SQLStore is a Store backed by the db package.
type SQLStore struct {
	qry    *db.Queries
	makeTx db.MakeTx
}

var _ Store = SQLStore{}

func NewSQLStore(qry *db.Queries, makeTx db.MakeTx) SQLStore {
	assert.NotNil(qry)
	assert.NotNil(makeTx)
	return SQLStore{qry: qry, makeTx: makeTx}
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return model.StorageError{Op: op, Err: err}
}

// changed turns "no rows affected" into model.ErrNotFound.
func changed(op string, rows int64, err error) error {
	if err != nil {
		return storageError(op, err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func taskFromRow(row db.Task) model.Task {
	return model.Task{
		Id:        row.ID,
		Title:     row.Title,
		ClassName: row.ClassName,
		Type:      model.TaskType(row.Type),
		Deadline:  row.Deadline,
		Url:       row.Url,
		Done:      row.Done,
		Color:     row.Color,
		Manual:    row.Manual,
	}
}

func (s SQLStore) Tasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.qry.GetTasks(ctx)
	if err != nil {
		return nil, storageError("GetTasks", err)
	}
	tasks := make([]model.Task, len(rows))
	for i, row := range rows {
		tasks[i] = taskFromRow(row)
	}
	return tasks, nil
}

func (s SQLStore) ScrapedTaskCount(ctx context.Context) (int64, error) {
	count, err := s.qry.CountScrapedTasks(ctx)
	return count, storageError("CountScrapedTasks", err)
}

func (s SQLStore) UpsertScrapedTasks(ctx context.Context, tasks []model.Task) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return storageError("make tx", err)
	}
	defer discard()

	for _, t := range tasks {
		err = tx.UpsertScrapedTask(ctx, db.UpsertScrapedTaskParams{
			ID:        t.Id,
			Title:     t.Title,
			ClassName: t.ClassName,
			Type:      int64(t.Type),
			Deadline:  t.Deadline,
			Url:       t.Url,
			Done:      t.Done,
		})
		if err != nil {
			return storageError("UpsertScrapedTask", err)
		}
	}
	return storageError("commit", commit())
}

func (s SQLStore) InsertTask(ctx context.Context, task model.Task) error {
	err := s.qry.InsertTask(ctx, db.InsertTaskParams{
		ID:        task.Id,
		Title:     task.Title,
		ClassName: task.ClassName,
		Type:      int64(task.Type),
		Deadline:  task.Deadline,
		Url:       task.Url,
		Done:      task.Done,
		Color:     task.Color,
		Manual:    task.Manual,
	})
	return storageError("InsertTask", err)
}

func (s SQLStore) SetTaskDone(ctx context.Context, id string, done bool) error {
	rows, err := s.qry.SetTaskDone(ctx, db.SetTaskDoneParams{ID: id, Done: done})
	return changed("SetTaskDone", rows, err)
}

func (s SQLStore) SetTaskColor(ctx context.Context, id, color string) error {
	rows, err := s.qry.SetTaskColor(ctx, db.SetTaskColorParams{ID: id, Color: color})
	return changed("SetTaskColor", rows, err)
}

func (s SQLStore) DeleteTask(ctx context.Context, id string) error {
	rows, err := s.qry.DeleteTask(ctx, id)
	return changed("DeleteTask", rows, err)
}

func cellFromRow(row db.ClassCell) (model.ClassCell, error) {
	var teachers []string
	err := json.Unmarshal([]byte(row.Teachers), &teachers)
	if err != nil {
		return model.ClassCell{}, err
	}
	return model.ClassCell{
		ClassId:         row.ClassID,
		Period:          int(row.Period),
		DayOfWeek:       int(row.DayOfWeek),
		IsUserGenerated: row.IsUserGenerated,
		TimetableTitle:  row.TimetableTitle,
		Name:            row.Name,
		Teachers:        teachers,
		Room:            row.Room,
		AcademicYear:    int(row.AcademicYear),
		Term:            row.Term,
		Link:            row.Link,
		Note:            row.Note,
		Credits:         int(row.Credits),
	}, nil
}

func insertCell(ctx context.Context, qry *db.Queries, cell model.ClassCell) error {
	teachers := cell.Teachers
	if teachers == nil {
		teachers = []string{}
	}
	encoded, err := json.Marshal(teachers)
	if err != nil {
		return err
	}
	return qry.InsertClassCell(ctx, db.InsertClassCellParams{
		ClassID:         cell.ClassId,
		Period:          int64(cell.Period),
		DayOfWeek:       int64(cell.DayOfWeek),
		IsUserGenerated: cell.IsUserGenerated,
		TimetableTitle:  cell.TimetableTitle,
		Name:            cell.Name,
		Teachers:        string(encoded),
		Room:            cell.Room,
		AcademicYear:    int64(cell.AcademicYear),
		Term:            cell.Term,
		Link:            cell.Link,
		Note:            cell.Note,
		Credits:         int64(cell.Credits),
	})
}

func (s SQLStore) ClassCells(ctx context.Context, timetableTitle string) ([]model.ClassCell, error) {
	rows, err := s.qry.GetClassCells(ctx, timetableTitle)
	if err != nil {
		return nil, storageError("GetClassCells", err)
	}
	cells := make([]model.ClassCell, 0, len(rows))
	for _, row := range rows {
		cell, err := cellFromRow(row)
		if err != nil {
			return nil, storageError("decode class cell", err)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func (s SQLStore) ScrapedClassCellCount(ctx context.Context, timetableTitle string) (int64, error) {
	count, err := s.qry.CountScrapedClassCells(ctx, timetableTitle)
	return count, storageError("CountScrapedClassCells", err)
}

func (s SQLStore) ReplaceScrapedClassCells(ctx context.Context, timetableTitle string, cells []model.ClassCell) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return storageError("make tx", err)
	}
	defer discard()

	err = tx.DeleteScrapedClassCells(ctx, timetableTitle)
	if err != nil {
		return storageError("DeleteScrapedClassCells", err)
	}
	for _, cell := range cells {
		err = insertCell(ctx, tx, cell)
		if err != nil {
			return storageError("InsertClassCell", err)
		}
	}
	return storageError("commit", commit())
}

func (s SQLStore) InsertClassCell(ctx context.Context, cell model.ClassCell) error {
	return storageError("InsertClassCell", insertCell(ctx, s.qry, cell))
}

func (s SQLStore) DeleteClassCell(ctx context.Context, timetableTitle string, period, dayOfWeek int, userGenerated bool) error {
	rows, err := s.qry.DeleteClassCell(ctx, db.DeleteClassCellParams{
		TimetableTitle:  timetableTitle,
		Period:          int64(period),
		DayOfWeek:       int64(dayOfWeek),
		IsUserGenerated: userGenerated,
	})
	return changed("DeleteClassCell", rows, err)
}

func newsFromRow(row db.NewsItem) model.NewsItem {
	return model.NewsItem{
		Id:          row.ID,
		SecondaryId: row.SecondaryID,
		Title:       row.Title,
		Category:    row.Category,
		Domain:      row.Domain,
		PublishedAt: row.PublishedAt,
		Tag:         row.Tag,
		Unread:      row.Unread,
		Url:         row.Url,
	}
}

func (s SQLStore) NewsItems(ctx context.Context) ([]model.NewsItem, error) {
	rows, err := s.qry.GetNewsItems(ctx)
	if err != nil {
		return nil, storageError("GetNewsItems", err)
	}
	items := make([]model.NewsItem, len(rows))
	for i, row := range rows {
		items[i] = newsFromRow(row)
	}
	return items, nil
}

func (s SQLStore) NewsItemCount(ctx context.Context) (int64, error) {
	count, err := s.qry.CountNewsItems(ctx)
	return count, storageError("CountNewsItems", err)
}

func (s SQLStore) UpsertNewsItems(ctx context.Context, items []model.NewsItem, replace bool) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return storageError("make tx", err)
	}
	defer discard()

	var read []string
	if replace {
		read, err = tx.GetReadNewsIds(ctx)
		if err != nil {
			return storageError("GetReadNewsIds", err)
		}
		err = tx.DeleteAllNewsItems(ctx)
		if err != nil {
			return storageError("DeleteAllNewsItems", err)
		}
	}

	for i, item := range items {
		err = tx.UpsertNewsItem(ctx, db.UpsertNewsItemParams{
			ID:          item.Id,
			SecondaryID: item.SecondaryId,
			Title:       item.Title,
			Category:    item.Category,
			Domain:      item.Domain,
			PublishedAt: item.PublishedAt,
			Tag:         item.Tag,
			Unread:      item.Unread,
			Url:         item.Url,
			Position:    int64(i),
		})
		if err != nil {
			return storageError("UpsertNewsItem", err)
		}
	}

	// read state outlives the purge, ids that are gone are simply not found
	for _, id := range read {
		_, err = tx.MarkNewsRead(ctx, id)
		if err != nil {
			return storageError("MarkNewsRead", err)
		}
	}
	return storageError("commit", commit())
}

func (s SQLStore) MarkNewsRead(ctx context.Context, id string) error {
	rows, err := s.qry.MarkNewsRead(ctx, id)
	return changed("MarkNewsRead", rows, err)
}
