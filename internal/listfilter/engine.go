package listfilter

import (
	"strings"
	"sync"
)

// Engine narrows a source list to the items whose projected fields contain the query,
// case-insensitively. The view keeps source order and is rebuilt on every change.
type Engine[T any] struct {
	mu     sync.RWMutex
	fields func(T) []string
	query  string
	source []T
	view   []T
}

// New builds an engine that matches against the strings returned by fields.
func New[T any](fields func(T) []string) *Engine[T] {
	return &Engine[T]{fields: fields, view: []T{}}
}

// SetQuery stores q and returns the recomputed view.
func (e *Engine[T]) SetQuery(q string) []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = q
	e.recompute()
	return e.copyView()
}

// SetSource replaces the source list and returns the recomputed view.
func (e *Engine[T]) SetSource(src []T) []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = append([]T(nil), src...)
	e.recompute()
	return e.copyView()
}

func (e *Engine[T]) View() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.copyView()
}

func (e *Engine[T]) Query() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.query
}

func (e *Engine[T]) Source() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]T(nil), e.source...)
}

// Apply filters items with the current query without touching the held source, and
// returns the query it used. Callers holding their own snapshot of the source use it to
// render a view consistent with that snapshot.
func (e *Engine[T]) Apply(items []T) (string, []T) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.query, e.filter(items)
}

func (e *Engine[T]) recompute() {
	e.view = e.filter(e.source)
}

func (e *Engine[T]) filter(items []T) []T {
	needle := strings.ToLower(e.query)
	view := make([]T, 0, len(items))
	for _, item := range items {
		if needle == "" || Matches(e.fields(item), needle) {
			view = append(view, item)
		}
	}
	return view
}

func (e *Engine[T]) copyView() []T {
	return append(make([]T, 0, len(e.view)), e.view...)
}

// Matches reports whether the space-joined fields contain query, ignoring case.
func Matches(fields []string, query string) bool {
	if query == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join(fields, " "))
	return strings.Contains(haystack, strings.ToLower(query))
}
