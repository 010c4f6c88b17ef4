package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/models"
)

func TestStatuses_Order(t *testing.T) {
	want := []models.TaskStatus{
		"Backlog",
		"Ready For Development",
		"In Progress",
		"Ready For Review",
		"Reviewed",
		"Impediments",
		"Done",
	}
	assert.Equal(t, want, Statuses())

	// Callers must not be able to reorder the board.
	got := Statuses()
	got[0] = "Done"
	assert.Equal(t, Backlog, Statuses()[0])
}

func TestValidate(t *testing.T) {
	for _, s := range Statuses() {
		assert.NoError(t, Validate(s), s)
	}

	for _, s := range []models.TaskStatus{"", "done", "BACKLOG", "Archived", " Done"} {
		err := Validate(s)
		require.Error(t, err, s)
		assert.True(t, errors.Is(err, ErrInvalidStatus))
	}
}

func TestNormalize(t *testing.T) {
	s, err := Normalize("")
	require.NoError(t, err)
	assert.Equal(t, Backlog, s)

	s, err = Normalize("  ")
	require.NoError(t, err)
	assert.Equal(t, Backlog, s)

	s, err = Normalize(Impediments)
	require.NoError(t, err)
	assert.Equal(t, Impediments, s)

	_, err = Normalize("Blocked")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestColumnFor(t *testing.T) {
	assert.Equal(t, InProgress, ColumnFor(InProgress))
	assert.Equal(t, Backlog, ColumnFor("Unknown"))
	assert.Equal(t, Backlog, ColumnFor(""))
}

func TestNextPrevious(t *testing.T) {
	next, ok := Next(Backlog)
	assert.True(t, ok)
	assert.Equal(t, ReadyForDevelopment, next)

	_, ok = Next(Done)
	assert.False(t, ok)

	_, ok = Next("bogus")
	assert.False(t, ok)

	prev, ok := Previous(Done)
	assert.True(t, ok)
	assert.Equal(t, Impediments, prev)

	_, ok = Previous(Backlog)
	assert.False(t, ok)
}

func TestBoard(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Status: Done},
		{ID: 2, Status: "legacy"},
		{ID: 3, Status: Backlog},
		{ID: 4, Status: Impediments},
		{ID: 5, Status: Done},
	}

	board := Board(tasks)
	require.Len(t, board, 7)

	for i, col := range board {
		assert.Equal(t, Statuses()[i], col.Status)
		assert.NotNil(t, col.Tasks)
	}

	ids := func(col Column) []uint64 {
		out := []uint64{}
		for _, task := range col.Tasks {
			out = append(out, task.ID)
		}
		return out
	}

	assert.Equal(t, []uint64{2, 3}, ids(board[Index(Backlog)]))
	assert.Equal(t, []uint64{4}, ids(board[Index(Impediments)]))
	assert.Equal(t, []uint64{1, 5}, ids(board[Index(Done)]))
	assert.Empty(t, board[Index(InProgress)].Tasks)
}
