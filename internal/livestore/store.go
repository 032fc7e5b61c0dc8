// Package livestore holds the client-side collection of user objects and
// its refresh state machine.
package livestore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/joeblew999/plat-metro/internal/metrics"
	"github.com/joeblew999/plat-metro/internal/objects"
)

// State is the refresh state of the store.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Remote is the object API. Both remote.Client and objects.Service satisfy it.
type Remote interface {
	List(ctx context.Context) ([]objects.UserObject, error)
	Create(ctx context.Context, p objects.CreatePayload) (objects.UserObject, error)
}

// Snapshot is an immutable view of the store.
type Snapshot struct {
	State   State
	Objects []objects.UserObject
	Err     string
}

// Loading reports whether a refresh is in flight.
func (s Snapshot) Loading() bool { return s.State == Loading }

// Observer is told about every change to the store.
type Observer interface {
	ObjectsChanged(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) ObjectsChanged(s Snapshot) { f(s) }

// Store is the single owner of the user object collection.
type Store struct {
	remote Remote
	log    *slog.Logger

	mu        sync.Mutex
	state     State
	objects   []objects.UserObject
	err       string
	nextObs   int
	observers map[int]Observer
}

// New creates an idle, empty store.
func New(remote Remote, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		remote:    remote,
		log:       log,
		objects:   []objects.UserObject{},
		observers: make(map[int]Observer),
	}
}

// Subscribe registers o and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current state. The object slice is a copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, Objects: slices.Clone(s.objects), Err: s.err}
}

// Refresh replaces the collection with the remote list. On failure the
// previous collection is kept and the error message is recorded.
func (s *Store) Refresh(ctx context.Context) error {
	s.update(func() {
		s.state = Loading
		s.err = ""
	})

	list, err := s.remote.List(ctx)
	metrics.ObjectRefreshes.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.log.Error("object refresh failed", "error", err)
		s.update(func() {
			s.state = Error
			s.err = err.Error()
		})
		return fmt.Errorf("refreshing objects: %w", err)
	}

	s.log.Debug("objects refreshed", "count", len(list))
	s.update(func() {
		s.state = Ready
		s.objects = slices.Clone(list)
		if s.objects == nil {
			s.objects = []objects.UserObject{}
		}
	})
	return nil
}

// AddLocal appends obj without touching the refresh state.
func (s *Store) AddLocal(obj objects.UserObject) {
	s.update(func() {
		s.objects = append(s.objects, obj)
	})
}

// Create validates p, sends it to the remote and appends the stored object.
// Invalid input never reaches the network, and a failed create leaves the
// store unchanged.
func (s *Store) Create(ctx context.Context, p objects.CreatePayload) (objects.UserObject, error) {
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return objects.UserObject{}, err
	}

	obj, err := s.remote.Create(ctx, p)
	metrics.ObjectCreates.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.log.Error("object create failed", "name", p.Name, "error", err)
		return objects.UserObject{}, fmt.Errorf("creating object: %w", err)
	}

	s.AddLocal(obj)
	return obj, nil
}

// update mutates under the lock and notifies observers after releasing it.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	for _, o := range obs {
		o.ObjectsChanged(snap)
	}
}
