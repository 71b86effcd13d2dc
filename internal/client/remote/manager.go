// Package remote mirrors a date's task list from the backend. The in-memory
// list changes only after the backend acknowledges a request.
package remote

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/notify"

	"github.com/charmbracelet/log"
)

// ErrBusy is returned when a mutating request is already in flight.
var ErrBusy = errors.New("another request is in flight")

// API is the subset of the backend client the manager needs.
type API interface {
	List(ctx context.Context, date dom.Date) ([]dom.Task, error)
	Create(ctx context.Context, text string, date dom.Date) (dom.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool) (dom.Task, error)
	UpdateText(ctx context.Context, id, text string) (dom.Task, error)
	Delete(ctx context.Context, id string) error
}

// Manager holds the list for the selected date plus the input and edit buffers.
type Manager struct {
	api      API
	notifier notify.Notifier
	logger   *log.Logger

	// busy admits one mutating request at a time.
	busy atomic.Bool

	mu      sync.Mutex
	date    dom.Date
	tasks   []dom.Task
	input   string
	editing map[string]string
}

func New(api API, notifier notify.Notifier, logger *log.Logger) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		api:      api,
		notifier: notifier,
		logger:   logger.WithPrefix("sync"),
		date:     dom.Today(),
		editing:  make(map[string]string),
	}
}

// Fetch loads date's list and makes date current. On failure the previous
// list and date are kept.
func (m *Manager) Fetch(ctx context.Context, date dom.Date) error {
	tasks, err := m.api.List(ctx, date)
	if err != nil {
		m.fail(notify.FetchFailed, "fetch", err, "date", date)
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.date = date
	m.tasks = tasks
	m.editing = make(map[string]string)
	return nil
}

// SetInput replaces the input buffer.
func (m *Manager) SetInput(text string) {
	m.mu.Lock()
	m.input = text
	m.mu.Unlock()
}

func (m *Manager) Input() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input
}

// Submit adds the input buffer as a new task.
func (m *Manager) Submit(ctx context.Context) (dom.Task, bool, error) {
	return m.Add(ctx, m.Input())
}

// Add creates a task on the current date. Blank text is ignored. On success
// the server's task is appended and the input buffer cleared; on failure the
// buffer keeps text.
func (m *Manager) Add(ctx context.Context, text string) (dom.Task, bool, error) {
	if strings.TrimSpace(text) == "" {
		return dom.Task{}, false, nil
	}
	if !m.acquire() {
		return dom.Task{}, false, ErrBusy
	}
	defer m.release()

	m.mu.Lock()
	date := m.date
	m.input = text
	m.mu.Unlock()

	task, err := m.api.Create(ctx, text, date)
	if err != nil {
		m.fail(notify.AddFailed, "add", err, "date", date)
		return dom.Task{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// The user may have switched dates while the request was in flight.
	if m.date == date {
		m.tasks = append(m.tasks, task)
	}
	m.input = ""
	return task, true, nil
}

// Toggle sends the inverted completion flag of id. Unknown ids are a no-op.
func (m *Manager) Toggle(ctx context.Context, id string) (bool, error) {
	current, ok := m.find(id)
	if !ok {
		return false, nil
	}
	if !m.acquire() {
		return false, ErrBusy
	}
	defer m.release()

	if _, err := m.api.SetCompleted(ctx, id, !current.Completed); err != nil {
		m.fail(notify.ToggleFailed, "toggle", err, "id", id)
		return false, err
	}
	m.apply(id, func(t *dom.Task) { t.Completed = !current.Completed })
	return true, nil
}

// BeginEdit puts id into edit mode with its current text as the draft.
func (m *Manager) BeginEdit(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			m.editing[id] = t.Text
			return true
		}
	}
	return false
}

// CancelEdit leaves edit mode without sending anything.
func (m *Manager) CancelEdit(id string) {
	m.mu.Lock()
	delete(m.editing, id)
	m.mu.Unlock()
}

// Editing reports whether id is in edit mode and returns its draft.
func (m *Manager) Editing(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.editing[id]
	return draft, ok
}

// Edit sends new text for id. On success the text is replaced and edit mode
// ends; on failure edit mode stays active with text as the draft.
func (m *Manager) Edit(ctx context.Context, id, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	if _, ok := m.find(id); !ok {
		return false, nil
	}
	if !m.acquire() {
		return false, ErrBusy
	}
	defer m.release()

	m.mu.Lock()
	m.editing[id] = text
	m.mu.Unlock()

	updated, err := m.api.UpdateText(ctx, id, text)
	if err != nil {
		m.fail(notify.EditFailed, "edit", err, "id", id)
		return false, err
	}
	m.apply(id, func(t *dom.Task) { t.Text = updated.Text })
	m.CancelEdit(id)
	return true, nil
}

// Delete removes id after the backend confirms. Unknown ids are a no-op.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.find(id); !ok {
		return false, nil
	}
	if !m.acquire() {
		return false, ErrBusy
	}
	defer m.release()

	if err := m.api.Delete(ctx, id); err != nil {
		m.fail(notify.DeleteFailed, "delete", err, "id", id)
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
			break
		}
	}
	delete(m.editing, id)
	return true, nil
}

// Clear drops the list and both buffers, e.g. on logout.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = nil
	m.input = ""
	m.editing = make(map[string]string)
}

// Tasks returns a copy of the current list.
func (m *Manager) Tasks() []dom.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dom.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Date is the date the current list belongs to.
func (m *Manager) Date() dom.Date {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.date
}

// Busy reports whether a mutating request is in flight; controls that
// trigger one should be disabled while it is true.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}

func (m *Manager) Progress() float64 {
	return dom.Progress(m.Tasks())
}

func (m *Manager) RoundedProgress() int {
	return dom.RoundedProgress(m.Tasks())
}

func (m *Manager) acquire() bool {
	if m.busy.CompareAndSwap(false, true) {
		return true
	}
	m.notifier.Notify(notify.Failure(notify.Busy, ErrBusy))
	return false
}

func (m *Manager) release() {
	m.busy.Store(false)
}

func (m *Manager) find(id string) (dom.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return dom.Task{}, false
}

func (m *Manager) apply(id string, fn func(*dom.Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			fn(&m.tasks[i])
			return
		}
	}
}

func (m *Manager) fail(key notify.Key, op string, err error, kv ...interface{}) {
	m.logger.Error(op+" failed", append(kv, "err", err)...)
	m.notifier.Notify(notify.Failure(key, err))
}
