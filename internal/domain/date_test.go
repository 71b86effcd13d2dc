package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 1}, d)
	assert.Equal(t, "2024-01-01", d.String())

	for _, bad := range []string{"", "2024-1-1", "2024-13-01", "01/01/2024", "2024-01-01T00:00:00Z", "2024-02-30"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateAddDays(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2024-02-27", d.AddDays(-1).String())
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(nil))
	assert.Equal(t, 0, RoundedProgress([]Task{}))

	tasks := []Task{{Completed: true}, {}, {}}
	assert.InDelta(t, 33.333, Progress(tasks), 0.001)
	assert.Equal(t, 33, RoundedProgress(tasks))

	tasks = []Task{{Completed: true}, {Completed: true}, {}}
	assert.Equal(t, 67, RoundedProgress(tasks))

	tasks = []Task{{Completed: true}}
	assert.Equal(t, 100, RoundedProgress(tasks))
}
