package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*sql.DB, *Queries) {
	database, err := OpenDB(context.Background(), Options{File: MEMORY})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, New(database)
}

func TestOpenDBRequiresTarget(t *testing.T) {
	_, err := OpenDB(context.Background(), Options{})
	require.Error(t, err)
}

func TestUpsertScrapedTask(t *testing.T) {
	_, qry := setup(t)
	ctx := context.Background()

	err := qry.InsertTask(ctx, InsertTaskParams{
		ID:     "manual-1",
		Title:  "Buy textbook",
		Type:   0,
		Manual: true,
	})
	require.NoError(t, err)

	err = qry.UpsertScrapedTask(ctx, UpsertScrapedTaskParams{
		ID:       "assignment-C1-R1",
		Title:    "Report",
		Type:     1,
		Deadline: 100,
	})
	require.NoError(t, err)
	_, err = qry.SetTaskColor(ctx, SetTaskColorParams{ID: "assignment-C1-R1", Color: "#ff0000"})
	require.NoError(t, err)
	_, err = qry.SetTaskDone(ctx, SetTaskDoneParams{ID: "assignment-C1-R1", Done: true})
	require.NoError(t, err)

	// a rescrape updates the content but keeps local state
	err = qry.UpsertScrapedTask(ctx, UpsertScrapedTaskParams{
		ID:       "assignment-C1-R1",
		Title:    "Report (revised)",
		Type:     1,
		Deadline: 200,
	})
	require.NoError(t, err)
	// a scraped task never overwrites a manual one
	err = qry.UpsertScrapedTask(ctx, UpsertScrapedTaskParams{ID: "manual-1", Title: "Scraped"})
	require.NoError(t, err)

	task, err := qry.GetTask(ctx, "assignment-C1-R1")
	require.NoError(t, err)
	require.Equal(t, "Report (revised)", task.Title)
	require.Equal(t, int64(200), task.Deadline)
	require.True(t, task.Done)
	require.Equal(t, "#ff0000", task.Color)

	manual, err := qry.GetTask(ctx, "manual-1")
	require.NoError(t, err)
	require.Equal(t, "Buy textbook", manual.Title)
	require.True(t, manual.Manual)

	tasks, err := qry.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	scraped, err := qry.CountScrapedTasks(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), scraped)

	removed, err := qry.DeleteTask(ctx, "manual-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	_, err = qry.GetTask(ctx, "manual-1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestClassCellSlots(t *testing.T) {
	_, qry := setup(t)
	ctx := context.Background()

	insert := func(classId string, period, day int64, userGenerated bool) error {
		return qry.InsertClassCell(ctx, InsertClassCellParams{
			ClassID:         classId,
			Period:          period,
			DayOfWeek:       day,
			IsUserGenerated: userGenerated,
			TimetableTitle:  "2024-1",
			Name:            classId,
			Teachers:        "[]",
			AcademicYear:    2024,
			Term:            "1",
		})
	}

	require.NoError(t, insert("C1", 0, 0, false))
	require.NoError(t, insert("C2", 0, 1, false))
	require.NoError(t, insert("U1", 0, 0, true))
	// one scraped class per slot
	require.Error(t, insert("C3", 0, 0, false))

	count, err := qry.CountScrapedClassCells(ctx, "2024-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	require.NoError(t, qry.DeleteScrapedClassCells(ctx, "2024-1"))
	cells, err := qry.GetClassCells(ctx, "2024-1")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Equal(t, "U1", cells[0].ClassID)
	require.True(t, cells[0].IsUserGenerated)
}

func TestNewsReadStateIsMonotonic(t *testing.T) {
	_, qry := setup(t)
	ctx := context.Background()

	require.NoError(t, qry.UpsertNewsItem(ctx, UpsertNewsItemParams{ID: "N1", Title: "a", Unread: true}))
	changed, err := qry.MarkNewsRead(ctx, "N1")
	require.NoError(t, err)
	require.Equal(t, int64(1), changed)

	require.NoError(t, qry.UpsertNewsItem(ctx, UpsertNewsItemParams{ID: "N1", Title: "b", Unread: true}))
	items, err := qry.GetNewsItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.False(t, items[0].Unread)
	require.Equal(t, "b", items[0].Title)

	read, err := qry.GetReadNewsIds(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"N1"}, read)
}

func TestMakeTxDiscard(t *testing.T) {
	database, qry := setup(t)
	ctx := context.Background()
	makeTx := NewMakeTx(database)

	tx, discard, _, err := makeTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertNewsItem(ctx, UpsertNewsItemParams{ID: "N1", Title: "a", Unread: true}))
	require.NoError(t, discard())

	count, err := qry.CountNewsItems(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	tx, _, commit, err := makeTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertNewsItem(ctx, UpsertNewsItemParams{ID: "N1", Title: "a", Unread: true}))
	require.NoError(t, commit())

	count, err = qry.CountNewsItems(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
