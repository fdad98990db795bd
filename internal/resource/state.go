package resource

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/angelmondragon/bazaar-console/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

// ErrStale is returned to a Load whose result was discarded because a newer Load was issued.
var ErrStale = errors.New("resource: load superseded by a newer request")

// Fetcher produces the value a State holds.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Snapshot is an immutable view of a State. Data is set only in success and Err only in error.
type Snapshot[T any] struct {
	Status     enums.LoadStatus
	Data       *T
	Err        error
	Generation uint64
}

// Value returns the held data and whether the snapshot is a success.
func (s Snapshot[T]) Value() (T, bool) {
	if s.Status != enums.LoadStatusSuccess || s.Data == nil {
		var zero T
		return zero, false
	}
	return *s.Data, true
}

// ErrorInfo is the render form of a failed load.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Info converts Err into its render form; nil when the snapshot is not an error.
func (s Snapshot[T]) Info() *ErrorInfo {
	if s.Err == nil {
		return nil
	}
	if typed := pkgerrors.As(s.Err); typed != nil {
		msg := typed.Message()
		if msg == "" {
			msg = pkgerrors.MetadataFor(typed.Code()).PublicMessage
		}
		return &ErrorInfo{Code: string(typed.Code()), Message: msg}
	}
	return &ErrorInfo{Code: string(pkgerrors.CodeInternal), Message: s.Err.Error()}
}

func (s Snapshot[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status enums.LoadStatus `json:"status"`
		Data   *T               `json:"data"`
		Error  *ErrorInfo       `json:"error"`
	}{
		Status: s.Status,
		Data:   s.Data,
		Error:  s.Info(),
	})
}

// State drives a value through idle -> loading -> success|error. Only the most recently
// issued Load may commit; earlier runs are cancelled and their late results ignored.
//
// Observers run in commit order and may call Snapshot, but must not call Load,
// MutateLocal or Reset on the same State.
type State[T any] struct {
	// notifyMu is always taken before mu.
	notifyMu sync.Mutex
	mu       sync.Mutex

	snap      Snapshot[T]
	gen       uint64
	cancel    context.CancelFunc
	observers []func(Snapshot[T])
}

type Option[T any] func(*State[T])

// WithObserver registers fn to receive every committed snapshot.
func WithObserver[T any](fn func(Snapshot[T])) Option[T] {
	return func(s *State[T]) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

func New[T any](opts ...Option[T]) *State[T] {
	s := &State[T]{snap: Snapshot[T]{Status: enums.LoadStatusIdle}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Load runs fetch and commits its outcome unless a newer Load was issued meanwhile,
// in which case the outcome is dropped and ErrStale returned with the current snapshot.
func (s *State[T]) Load(ctx context.Context, fetch Fetcher[T]) (Snapshot[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		gen    uint64
		runCtx context.Context
		cancel context.CancelFunc
	)
	s.update(func() bool {
		s.gen++
		gen = s.gen
		if s.cancel != nil {
			s.cancel()
		}
		runCtx, cancel = context.WithCancel(ctx)
		s.cancel = cancel
		s.snap = Snapshot[T]{Status: enums.LoadStatusLoading, Generation: gen}
		return true
	})

	value, err := fetch(runCtx)
	cancel()

	stale := false
	snap := s.update(func() bool {
		if gen != s.gen {
			stale = true
			return false
		}
		s.cancel = nil
		if err != nil {
			s.snap = Snapshot[T]{Status: enums.LoadStatusError, Err: err, Generation: gen}
		} else {
			s.snap = Snapshot[T]{Status: enums.LoadStatusSuccess, Data: &value, Generation: gen}
		}
		return true
	})
	if stale {
		return snap, ErrStale
	}
	return snap, err
}

// MutateLocal replaces the held data with update(data). It is refused with STATE_CONFLICT,
// leaving the state untouched, unless the state is a success. update must be pure.
func (s *State[T]) MutateLocal(update func(T) T) error {
	var refused error
	s.update(func() bool {
		if s.snap.Status != enums.LoadStatusSuccess || s.snap.Data == nil {
			refused = pkgerrors.New(pkgerrors.CodeStateConflict, "data is not loaded").
				WithDetails(map[string]any{"status": s.snap.Status})
			return false
		}
		next := update(*s.snap.Data)
		s.snap = Snapshot[T]{Status: enums.LoadStatusSuccess, Data: &next, Generation: s.snap.Generation}
		return true
	})
	return refused
}

// Reset cancels any in-flight load and returns the state to idle.
func (s *State[T]) Reset() {
	s.update(func() bool {
		s.gen++
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.snap = Snapshot[T]{Status: enums.LoadStatusIdle, Generation: s.gen}
		return true
	})
}

// update applies mutate under the state lock and, when it reports a change, hands the
// resulting snapshot to observers before the next commit can start.
func (s *State[T]) update(mutate func() bool) Snapshot[T] {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := mutate()
	snap := s.snap
	s.mu.Unlock()

	if changed {
		for _, fn := range s.observers {
			fn(snap)
		}
	}
	return snap
}
