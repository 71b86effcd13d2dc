package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"ostadtodo/internal/cache"
	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowRepo counts list reads and can hold one after it has read the rows.
type slowRepo struct {
	*testutil.TodoRepo

	mu      sync.Mutex
	lists   int
	read    chan struct{}
	release chan struct{}
}

func (r *slowRepo) ListByDate(ctx context.Context, userID int64, date dom.Date) ([]dom.Task, error) {
	list, err := r.TodoRepo.ListByDate(ctx, userID, date)
	r.mu.Lock()
	r.lists++
	read, release := r.read, r.release
	r.read, r.release = nil, nil
	r.mu.Unlock()
	if read != nil {
		close(read)
		<-release
	}
	return list, err
}

func (r *slowRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

// holdNextList makes the next ListByDate wait after reading until release is closed.
func (r *slowRepo) holdNextList() (read, release chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.read, r.release = make(chan struct{}), make(chan struct{})
	return r.read, r.release
}

func newCachedService(t *testing.T) (*TodoService, *slowRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := &slowRepo{TodoRepo: testutil.NewTodoRepo()}
	svc := NewTodoService(r, cache.NewTodoCache(rdb, time.Minute), log.New(io.Discard))
	return svc, r, mr
}

func TestCachedListHitsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, r, mr := newCachedService(t)
	day := mustDate(t, "2024-01-01")

	list, err := svc.List(ctx, 1, day)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, mr.Exists(cache.ListKey(1, day)))

	_, err = svc.List(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 1, r.listCalls(), "second read is served from cache")

	task, err := svc.Create(ctx, 1, day, "Grade exams")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.ListKey(1, day)))

	steps := []struct {
		name  string
		apply func() error
		check func(t *testing.T, list []dom.Task)
	}{
		{"create", func() error { return nil }, func(t *testing.T, list []dom.Task) {
			require.Len(t, list, 1)
		}},
		{"toggle", func() error {
			_, err := svc.SetCompleted(ctx, 1, task.ID, true)
			return err
		}, func(t *testing.T, list []dom.Task) {
			require.Len(t, list, 1)
			assert.True(t, list[0].Completed)
		}},
		{"edit", func() error {
			_, err := svc.UpdateText(ctx, 1, task.ID, "Grade finals")
			return err
		}, func(t *testing.T, list []dom.Task) {
			require.Len(t, list, 1)
			assert.Equal(t, "Grade finals", list[0].Text)
		}},
		{"delete", func() error {
			return svc.Delete(ctx, 1, task.ID)
		}, func(t *testing.T, list []dom.Task) {
			assert.Empty(t, list)
		}},
	}
	for _, step := range steps {
		require.NoError(t, step.apply(), step.name)
		assert.False(t, mr.Exists(cache.ListKey(1, day)), step.name)
		before := r.listCalls()

		list, err := svc.List(ctx, 1, day)
		require.NoError(t, err)
		step.check(t, list)
		assert.Equal(t, before+1, r.listCalls(), "%s: miss reads the repo", step.name)

		list, err = svc.List(ctx, 1, day)
		require.NoError(t, err)
		step.check(t, list)
		assert.Equal(t, before+1, r.listCalls(), "%s: next read hits the cache", step.name)
	}
}

func TestWriteDuringCacheMissIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	day := mustDate(t, "2024-01-01")

	cases := []struct {
		name   string
		seed   bool
		mutate func(svc *TodoService, id string) error
		want   func(t *testing.T, list []dom.Task)
	}{
		{"create", false, func(svc *TodoService, _ string) error {
			_, err := svc.Create(ctx, 1, day, "Grade exams")
			return err
		}, func(t *testing.T, list []dom.Task) {
			assert.Len(t, list, 1)
		}},
		{"toggle", true, func(svc *TodoService, id string) error {
			_, err := svc.SetCompleted(ctx, 1, id, true)
			return err
		}, func(t *testing.T, list []dom.Task) {
			require.Len(t, list, 1)
			assert.True(t, list[0].Completed)
		}},
		{"edit", true, func(svc *TodoService, id string) error {
			_, err := svc.UpdateText(ctx, 1, id, "Grade finals")
			return err
		}, func(t *testing.T, list []dom.Task) {
			require.Len(t, list, 1)
			assert.Equal(t, "Grade finals", list[0].Text)
		}},
		{"delete", true, func(svc *TodoService, id string) error {
			return svc.Delete(ctx, 1, id)
		}, func(t *testing.T, list []dom.Task) {
			assert.Empty(t, list)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r, _ := newCachedService(t)
			var id string
			if tc.seed {
				task, err := svc.Create(ctx, 1, day, "Grade exams")
				require.NoError(t, err)
				id = task.ID
			}

			read, release := r.holdNextList()
			done := make(chan error, 1)
			go func() {
				_, err := svc.List(ctx, 1, day)
				done <- err
			}()
			select {
			case <-read:
			case <-time.After(2 * time.Second):
				t.Fatal("list never reached the repo")
			}

			// The write commits after the slow read took its snapshot.
			require.NoError(t, tc.mutate(svc, id))
			close(release)
			require.NoError(t, <-done)

			list, err := svc.List(ctx, 1, day)
			require.NoError(t, err)
			tc.want(t, list)
		})
	}
}

func TestCacheOutageFallsBackToRepo(t *testing.T) {
	ctx := context.Background()
	svc, _, mr := newCachedService(t)
	day := mustDate(t, "2024-01-01")
	mr.Close()

	_, err := svc.Create(ctx, 1, day, "still saved")
	require.NoError(t, err)
	list, err := svc.List(ctx, 1, day)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
