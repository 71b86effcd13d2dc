package repo

import (
	"context"
	"time"

	dom "ostadtodo/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TodoRepo provides task persistence. Every method is scoped to one user;
// a row owned by another user behaves as missing (pgx.ErrNoRows).
type TodoRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, userID, id int64) (dom.Task, error)
	ListByDate(ctx context.Context, userID int64, date dom.Date) ([]dom.Task, error)
	SetCompleted(ctx context.Context, userID, id int64, completed bool) (dom.Task, error)
	UpdateText(ctx context.Context, userID, id int64, text string) (dom.Task, error)
	Delete(ctx context.Context, userID, id int64) (dom.Date, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

const todoColumns = `id, user_id, task_date, text, completed, created_at, updated_at`

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO todos (user_id, task_date, text)
		VALUES ($1, $2, $3)
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, t.UserID, t.Date.Time(), t.Text))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID, id int64) (dom.Task, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	return scanTodo(r.db.QueryRow(ctx, query, id, userID))
}

// ListByDate returns the user's tasks for date in insertion order.
func (r *PGTodoRepo) ListByDate(ctx context.Context, userID int64, date dom.Date) ([]dom.Task, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE user_id = $1 AND task_date = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, userID, date.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]dom.Task, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) SetCompleted(ctx context.Context, userID, id int64, completed bool) (dom.Task, error) {
	query := `
		UPDATE todos SET completed = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, id, userID, completed))
}

func (r *PGTodoRepo) UpdateText(ctx context.Context, userID, id int64, text string) (dom.Task, error) {
	query := `
		UPDATE todos SET text = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, id, userID, text))
}

// Delete removes the row and returns the date bucket it belonged to.
func (r *PGTodoRepo) Delete(ctx context.Context, userID, id int64) (dom.Date, error) {
	var d time.Time
	err := r.db.QueryRow(ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2 RETURNING task_date`,
		id, userID,
	).Scan(&d)
	if err != nil {
		return dom.Date{}, err
	}
	return dom.DateOf(d), nil
}

func scanTodo(row pgx.Row) (dom.Task, error) {
	var (
		t    dom.Task
		id   int64
		date time.Time
	)
	if err := row.Scan(&id, &t.UserID, &date, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return dom.Task{}, err
	}
	t.ID = FormatID(id)
	t.Date = dom.DateOf(date)
	return t, nil
}
