package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"ostadtodo/internal/cache"
	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/repo"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// MaxTextLen bounds task text, counted in runes.
const MaxTextLen = 500

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type TodoService struct {
	repo   repo.TodoRepo
	cache  *cache.TodoCache
	sf     singleflight.Group
	logger *log.Logger
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, logger *log.Logger) *TodoService {
	if logger == nil {
		logger = log.Default()
	}
	return &TodoService{repo: r, cache: c, logger: logger.WithPrefix("todos")}
}

func (s *TodoService) Create(ctx context.Context, userID int64, date dom.Date, text string) (dom.Task, error) {
	text, err := normalizeText(text)
	if err != nil {
		return dom.Task{}, err
	}
	if date.IsZero() {
		return dom.Task{}, ErrInvalidInput
	}
	t, err := s.repo.Create(ctx, dom.Task{UserID: userID, Date: date, Text: text})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID, date)
	return t, nil
}

// List returns the user's tasks for date in insertion order.
func (s *TodoService) List(ctx context.Context, userID int64, date dom.Date) ([]dom.Task, error) {
	if s.cache == nil {
		return s.repo.ListByDate(ctx, userID, date)
	}
	key := strconv.FormatInt(userID, 10) + ":" + date.String()
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		list, err := s.cache.GetList(ctx, userID, date)
		if err != nil {
			s.logger.Warn("cache read failed", "user", userID, "date", date, "err", err)
		} else if list != nil {
			return list, nil
		}
		// A write committed after this point bumps the generation, so the
		// list read below is not cached over it.
		gen, genErr := s.cache.Generation(ctx, userID, date)
		list, err = s.repo.ListByDate(ctx, userID, date)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			s.logger.Warn("cache generation read failed", "user", userID, "date", date, "err", genErr)
			return list, nil
		}
		stored, err := s.cache.SetList(ctx, userID, date, gen, list)
		if err != nil {
			s.logger.Warn("cache write failed", "user", userID, "date", date, "err", err)
		} else if !stored {
			s.logger.Debug("list changed while reading, not cached", "user", userID, "date", date)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Task), nil
}

func (s *TodoService) SetCompleted(ctx context.Context, userID int64, id string, completed bool) (dom.Task, error) {
	rowID, err := repo.ParseID(id)
	if err != nil {
		return dom.Task{}, ErrNotFound
	}
	t, err := s.repo.SetCompleted(ctx, userID, rowID, completed)
	if err != nil {
		return dom.Task{}, mapNoRows(err)
	}
	s.invalidateCache(ctx, userID, t.Date)
	return t, nil
}

func (s *TodoService) UpdateText(ctx context.Context, userID int64, id, text string) (dom.Task, error) {
	text, err := normalizeText(text)
	if err != nil {
		return dom.Task{}, err
	}
	rowID, err := repo.ParseID(id)
	if err != nil {
		return dom.Task{}, ErrNotFound
	}
	t, err := s.repo.UpdateText(ctx, userID, rowID, text)
	if err != nil {
		return dom.Task{}, mapNoRows(err)
	}
	s.invalidateCache(ctx, userID, t.Date)
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, userID int64, id string) error {
	rowID, err := repo.ParseID(id)
	if err != nil {
		return ErrNotFound
	}
	date, err := s.repo.Delete(ctx, userID, rowID)
	if err != nil {
		return mapNoRows(err)
	}
	s.invalidateCache(ctx, userID, date)
	return nil
}

func (s *TodoService) invalidateCache(ctx context.Context, userID int64, date dom.Date) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID, date); err != nil {
		s.logger.Warn("cache invalidate failed", "user", userID, "date", date, "err", err)
	}
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxTextLen {
		return "", ErrInvalidInput
	}
	return text, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
