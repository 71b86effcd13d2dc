// Package local keeps date-bucketed task lists in a durable key-value store.
// Every mutation rewrites the whole mapping.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	dom "ostadtodo/internal/domain"

	"github.com/charmbracelet/log"
)

// StorageKey is the fixed key the mapping is stored under.
const StorageKey = "todos"

// Buckets maps a YYYY-MM-DD date to its tasks in insertion order.
type Buckets map[string][]dom.Task

type record struct {
	ID        taskID `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// taskID accepts both numeric and string ids on read and always writes a string.
type taskID string

func (t *taskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = taskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = taskID(n.String())
	return nil
}

// Store is the in-memory task collection mirrored to a KV.
type Store struct {
	kv     KV
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	buckets Buckets
	lastID  int64
}

// New returns an empty store; call Load to read persisted state.
func New(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		kv:      kv,
		logger:  logger.WithPrefix("local"),
		now:     time.Now,
		buckets: make(Buckets),
	}
}

// Load replaces the in-memory mapping with the persisted one. Missing or
// malformed state loads as empty and is never an error.
func (s *Store) Load(ctx context.Context) {
	buckets := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = buckets
	s.lastID = 0
	for _, tasks := range buckets {
		for _, t := range tasks {
			if n, err := strconv.ParseInt(t.ID, 10, 64); err == nil && n > s.lastID {
				s.lastID = n
			}
		}
	}
}

func (s *Store) read(ctx context.Context) Buckets {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("reading stored tasks failed, starting empty", "err", err)
		return make(Buckets)
	}
	if !ok {
		return make(Buckets)
	}
	if err := validateDocument(raw); err != nil {
		s.logger.Warn("stored tasks are malformed, starting empty", "err", err)
		return make(Buckets)
	}
	var doc map[string][]record
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("stored tasks are malformed, starting empty", "err", err)
		return make(Buckets)
	}

	buckets := make(Buckets, len(doc))
	for key, records := range doc {
		date, err := dom.ParseDate(key)
		if err != nil {
			s.logger.Warn("skipping bucket with bad date", "date", key)
			continue
		}
		seen := make(map[string]bool, len(records))
		tasks := make([]dom.Task, 0, len(records))
		for _, r := range records {
			id := string(r.ID)
			if seen[id] {
				s.logger.Warn("dropping duplicate task id", "date", key, "id", id)
				continue
			}
			seen[id] = true
			tasks = append(tasks, dom.Task{ID: id, Date: date, Text: r.Text, Completed: r.Completed})
		}
		buckets[date.String()] = tasks
	}
	return buckets
}

// Add appends a new incomplete task to date's bucket. Blank text is ignored
// and reports added == false. A persist error leaves the in-memory add in place.
func (s *Store) Add(ctx context.Context, date dom.Date, text string) (task dom.Task, added bool, err error) {
	if strings.TrimSpace(text) == "" {
		return dom.Task{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task = dom.Task{ID: s.nextID(), Date: date, Text: text}
	key := date.String()
	s.buckets[key] = append(s.buckets[key], task)
	return task, true, s.persist(ctx)
}

// Toggle flips the completion flag of id. Unknown ids are a no-op.
func (s *Store) Toggle(ctx context.Context, date dom.Date, id string) (found bool, err error) {
	return s.update(ctx, date, id, func(t *dom.Task) { t.Completed = !t.Completed })
}

// Edit replaces the text of id. Blank text and unknown ids are a no-op.
func (s *Store) Edit(ctx context.Context, date dom.Date, id, text string) (found bool, err error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	return s.update(ctx, date, id, func(t *dom.Task) { t.Text = text })
}

// Delete removes id from date's bucket. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, date dom.Date, id string) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.String()
	tasks := s.buckets[key]
	i := indexOf(tasks, id)
	if i < 0 {
		return false, nil
	}
	rest := make([]dom.Task, 0, len(tasks)-1)
	rest = append(rest, tasks[:i]...)
	rest = append(rest, tasks[i+1:]...)
	s.buckets[key] = rest
	return true, s.persist(ctx)
}

func (s *Store) update(ctx context.Context, date dom.Date, id string, fn func(*dom.Task)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.buckets[date.String()]
	i := indexOf(tasks, id)
	if i < 0 {
		return false, nil
	}
	fn(&tasks[i])
	return true, s.persist(ctx)
}

// Tasks returns a copy of date's bucket in insertion order.
func (s *Store) Tasks(date dom.Date) []dom.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.buckets[date.String()]
	out := make([]dom.Task, len(tasks))
	copy(out, tasks)
	return out
}

// Progress is the completed percentage of date's bucket, 0 when empty or absent.
func (s *Store) Progress(date dom.Date) float64 {
	return dom.Progress(s.Tasks(date))
}

// RoundedProgress is Progress rounded to a whole percent.
func (s *Store) RoundedProgress(date dom.Date) int {
	return dom.RoundedProgress(s.Tasks(date))
}

// Dates returns the dates that have at least one task, oldest first.
func (s *Store) Dates() []dom.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make([]dom.Date, 0, len(s.buckets))
	for key, tasks := range s.buckets {
		if len(tasks) == 0 {
			continue
		}
		if d, err := dom.ParseDate(key); err == nil {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Time().Before(dates[j].Time()) })
	return dates
}

// nextID returns a millisecond timestamp id, bumped past the last one issued.
// Callers hold s.mu.
func (s *Store) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// persist writes the whole mapping. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	doc := make(map[string][]record, len(s.buckets))
	for key, tasks := range s.buckets {
		records := make([]record, len(tasks))
		for i, t := range tasks {
			records[i] = record{ID: taskID(t.ID), Text: t.Text, Completed: t.Completed}
		}
		doc[key] = records
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, raw); err != nil {
		s.logger.Error("saving tasks failed", "err", err)
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func indexOf(tasks []dom.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
