package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskId(t *testing.T) {
	require.Equal(t, "assignment-C100-R7", TaskId(TASK_ASSIGNMENT, "C100", "R7"))
	require.Equal(t, "survey-C100-7", TaskId(TASK_SURVEY, "C100", "7"))
	require.NotEqual(t, TaskId(TASK_EXAM, "C1", "1"), TaskId(TASK_ASSIGNMENT, "C1", "1"))
}

func TestTaskTypeRoundTrip(t *testing.T) {
	for _, tt := range []TaskType{TASK_OTHER, TASK_ASSIGNMENT, TASK_EXAM, TASK_SURVEY} {
		require.Equal(t, tt, ParseTaskType(tt.String()))
	}
	require.Equal(t, TASK_OTHER, ParseTaskType("lecture"))
}

func TestClassCellInGrid(t *testing.T) {
	require.True(t, ClassCell{Period: 0, DayOfWeek: 6}.InGrid())
	require.False(t, ClassCell{Period: 7, DayOfWeek: 0}.InGrid())
	require.False(t, ClassCell{Period: 1, DayOfWeek: -1}.InGrid())
}

func TestErrors(t *testing.T) {
	wrapped := fmt.Errorf("fetch tasks: %w", NetworkError{Op: "GET /lms/task", Err: ErrSessionExpired})
	require.ErrorIs(t, wrapped, ErrSessionExpired)

	var netErr NetworkError
	require.True(t, errors.As(wrapped, &netErr))
	require.Equal(t, "GET /lms/task", netErr.Op)

	require.True(t, ExtractionError{Page: "tasks", Row: WHOLE_PAGE}.Fatal())
	require.False(t, ExtractionError{Page: "tasks", Row: 2}.Fatal())
	require.Equal(t, "extract tasks row 2: missing deadline", ExtractionError{Page: "tasks", Row: 2, Reason: "missing deadline"}.Error())
}
