// Package tasklist holds the in-memory, ordered to-do list of a single session.
//
// A Store is created empty, mutated only through AddTask, Complete/CompleteTask and
// Delete/DeleteTask, and observed through OnChange listeners or by comparing
// Snapshot versions. Tasks are never persisted.
package tasklist

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ChangeKind identifies the mutation that produced a Change
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeCompleted ChangeKind = "completed"
	ChangeDeleted   ChangeKind = "deleted"
)

// Change describes one successful mutation. Index is the task's position
// before a delete and its position after an add or complete.
type Change struct {
	Kind    ChangeKind
	Task    Task
	Index   int
	Version uint64
}

// Listener receives change notifications. Listeners may read the store but
// must not mutate it.
type Listener func(Change)

// Snapshot is a read-only copy of the list at a given version
type Snapshot struct {
	Version uint64 `json:"version"`
	Tasks   []Task `json:"tasks"`
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the timestamp source used by AddTask.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator sets the function that assigns task IDs.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store owns the ordered task collection of one session.
type Store struct {
	mu      sync.RWMutex
	tasks   []Task
	version uint64
	clock   Clock
	newID   func() uuid.UUID

	listenersMu    sync.Mutex
	listeners      []listenerEntry
	nextListenerID uint64

	// delivery is ordered by version: change v waits until v-1 has been delivered.
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		clock: SystemClock{},
		newID: uuid.New,
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask appends a task with the trimmed text. Blank text is rejected with
// ErrEmptyTaskText and leaves the store unchanged.
func (s *Store) AddTask(rawText string) (Task, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Task{}, ErrEmptyTaskText
	}

	s.mu.Lock()
	task := Task{
		ID:        s.newID(),
		Text:      text,
		CreatedAt: s.clock.Now(),
	}
	s.tasks = append(s.tasks, task)
	change := s.commitLocked(ChangeAdded, task, len(s.tasks)-1)
	s.mu.Unlock()

	s.deliver(change)
	return task, nil
}

// CompleteTask marks the task at index as completed.
func (s *Store) CompleteTask(index int) error {
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return err
	}
	change := s.completeLocked(index)
	s.mu.Unlock()

	s.deliver(change)
	return nil
}

// DeleteTask removes the task at index. Later tasks shift down by one.
func (s *Store) DeleteTask(index int) error {
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return err
	}
	change := s.deleteLocked(index)
	s.mu.Unlock()

	s.deliver(change)
	return nil
}

// Complete marks the task with the given ID as completed, keeping its position
// and creation time. Completing an already completed task succeeds.
func (s *Store) Complete(id uuid.UUID) (Task, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, ErrTaskNotFound
	}
	change := s.completeLocked(i)
	s.mu.Unlock()

	s.deliver(change)
	return change.Task, nil
}

// Delete removes the task with the given ID.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	change := s.deleteLocked(i)
	s.mu.Unlock()

	s.deliver(change)
	return nil
}

// Tasks returns a copy of the current list in display order.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Snapshot returns a copy of the list together with its version.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Version: s.version, Tasks: s.copyLocked()}
}

// Version returns the number of successful mutations so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// IndexOf returns the current position of the task with the given ID.
func (s *Store) IndexOf(id uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return -1, ErrTaskNotFound
	}
	return i, nil
}

// OnChange registers a listener and returns a function that removes it.
func (s *Store) OnChange(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	s.nextListenerID++
	id := s.nextListenerID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) checkIndexLocked(index int) error {
	if index < 0 || index >= len(s.tasks) {
		return &IndexError{Index: index, Len: len(s.tasks)}
	}
	return nil
}

func (s *Store) completeLocked(i int) Change {
	s.tasks[i].Completed = true
	return s.commitLocked(ChangeCompleted, s.tasks[i], i)
}

func (s *Store) deleteLocked(i int) Change {
	task := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return s.commitLocked(ChangeDeleted, task, i)
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) copyLocked() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) commitLocked(kind ChangeKind, task Task, index int) Change {
	s.version++
	return Change{Kind: kind, Task: task, Index: index, Version: s.version}
}

func (s *Store) deliver(c Change) {
	s.notifyMu.Lock()
	for s.delivered+1 != c.Version {
		s.notifyCond.Wait()
	}
	s.notifyMu.Unlock()
	defer func() {
		s.notifyMu.Lock()
		s.delivered = c.Version
		s.notifyCond.Broadcast()
		s.notifyMu.Unlock()
	}()

	s.listenersMu.Lock()
	listeners := make([]Listener, len(s.listeners))
	for i, e := range s.listeners {
		listeners[i] = e.fn
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(c)
	}
}
