package domain

import "time"

// Task is the domain entity for a single to-do item.
// ID is opaque: a millisecond timestamp for local buckets, the server row id remotely.
type Task struct {
	ID        string
	UserID    int64
	Date      Date
	Text      string
	Completed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Progress returns the share of completed tasks as a percentage.
// An empty list has progress 0.
func Progress(tasks []Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return float64(done) / float64(len(tasks)) * 100
}

// RoundedProgress is Progress rounded half up to a whole percent.
func RoundedProgress(tasks []Task) int {
	return int(Progress(tasks) + 0.5)
}
