// Package testutil provides in-memory fakes of the storage interfaces for tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/repo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserRepo is an in-memory repo.UserRepo. Duplicate usernames fail with
// the same unique-violation error Postgres returns.
type UserRepo struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]dom.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byName: make(map[string]dom.User)}
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *UserRepo) Create(_ context.Context, username, passwordHash string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[username]; ok {
		return dom.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"users_username_key\""}
	}
	r.nextID++
	u := dom.User{ID: r.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	r.byName[username] = u
	return u, nil
}

// TodoRepo is an in-memory repo.TodoRepo.
type TodoRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]dom.Task
	// Err, when set, is returned by every call.
	Err error
}

func NewTodoRepo() *TodoRepo {
	return &TodoRepo{rows: make(map[int64]dom.Task)}
}

func (r *TodoRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return dom.Task{}, r.Err
	}
	r.nextID++
	now := time.Now().UTC()
	t.ID = repo.FormatID(r.nextID)
	t.Completed = false
	t.CreatedAt, t.UpdatedAt = now, now
	r.rows[r.nextID] = t
	return t, nil
}

func (r *TodoRepo) GetByID(_ context.Context, userID, id int64) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(userID, id)
}

func (r *TodoRepo) ListByDate(_ context.Context, userID int64, date dom.Date) ([]dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	ids := make([]int64, 0)
	for id, t := range r.rows {
		if t.UserID == userID && t.Date == date {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	list := make([]dom.Task, 0, len(ids))
	for _, id := range ids {
		list = append(list, r.rows[id])
	}
	return list, nil
}

func (r *TodoRepo) SetCompleted(_ context.Context, userID, id int64, completed bool) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(userID, id)
	if err != nil {
		return dom.Task{}, err
	}
	t.Completed = completed
	t.UpdatedAt = time.Now().UTC()
	r.rows[id] = t
	return t, nil
}

func (r *TodoRepo) UpdateText(_ context.Context, userID, id int64, text string) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(userID, id)
	if err != nil {
		return dom.Task{}, err
	}
	t.Text = text
	t.UpdatedAt = time.Now().UTC()
	r.rows[id] = t
	return t, nil
}

func (r *TodoRepo) Delete(_ context.Context, userID, id int64) (dom.Date, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(userID, id)
	if err != nil {
		return dom.Date{}, err
	}
	delete(r.rows, id)
	return t.Date, nil
}

// Len returns the number of stored rows across all users.
func (r *TodoRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *TodoRepo) get(userID, id int64) (dom.Task, error) {
	if r.Err != nil {
		return dom.Task{}, r.Err
	}
	t, ok := r.rows[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	return t, nil
}
