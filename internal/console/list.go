package console

import (
	"context"
	"errors"

	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/internal/listfilter"
	"github.com/angelmondragon/bazaar-console/internal/mutations"
	"github.com/angelmondragon/bazaar-console/internal/resource"
	"github.com/angelmondragon/bazaar-console/pkg/enums"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

// Gateway is what a list view needs from a backend collection.
type Gateway[E any] interface {
	mutations.Gateway[E]
	Get(ctx context.Context, id int64) (E, error)
}

// ListRender is the render form of a searchable list screen.
type ListRender[C any] struct {
	Status   enums.LoadStatus            `json:"status"`
	Query    string                      `json:"query"`
	Total    int                         `json:"total"`
	Matched  int                         `json:"matched"`
	Items    []C                         `json:"items"`
	Error    *resource.ErrorInfo         `json:"error"`
	InFlight []mutations.PendingMutation `json:"inFlight"`
}

// ListView is one collection screen: the loaded collection, its search filter and the
// coordinator that writes through to the backend. E is the entity, C its render form.
type ListView[E, C any] struct {
	name    string
	gw      Gateway[E]
	state   *resource.State[[]E]
	filter  *listfilter.Engine[E]
	coord   *mutations.Coordinator[E]
	present func(E) C
	logg    *logger.Logger
}

// NewListView wires a collection screen. fields selects the searchable values, idOf the
// identity and present the render form of each entity.
func NewListView[E, C any](gw Gateway[E], fields func(E) []string, idOf func(E) int64, present func(E) C, logg *logger.Logger) *ListView[E, C] {
	if logg == nil {
		logg = logger.Nop()
	}
	filter := listfilter.New(fields)
	state := resource.New(resource.WithObserver(func(s resource.Snapshot[[]E]) {
		if items, ok := s.Value(); ok {
			filter.SetSource(items)
		}
	}))
	return &ListView[E, C]{
		name:    gw.Name(),
		gw:      gw,
		state:   state,
		filter:  filter,
		coord:   mutations.NewCoordinator[E](gw, state, idOf, mutations.WithLogger[E](logg)),
		present: present,
		logg:    logg,
	}
}

func (v *ListView[E, C]) Name() string {
	return v.name
}

// Open loads the collection the first time the screen is shown and otherwise renders
// what is already held.
func (v *ListView[E, C]) Open(ctx context.Context) (ListRender[C], error) {
	if v.state.Snapshot().Status == enums.LoadStatusIdle {
		return v.Reload(ctx)
	}
	return v.Render(), nil
}

// Reload refetches the collection. A load superseded by a newer one is not an error.
func (v *ListView[E, C]) Reload(ctx context.Context) (ListRender[C], error) {
	ctx = v.logg.WithResource(ctx, v.name)
	_, err := v.state.Load(ctx, v.gw.List)
	if errors.Is(err, resource.ErrStale) {
		err = nil
	}
	if err != nil {
		v.logg.Error(ctx, "list load failed", err)
	}
	return v.Render(), err
}

// Search narrows the rendered items without touching the backend.
func (v *ListView[E, C]) Search(query string) ListRender[C] {
	v.filter.SetQuery(query)
	return v.Render()
}

// Render returns the screen state. Items are listed only while the collection is loaded.
func (v *ListView[E, C]) Render() ListRender[C] {
	snap := v.state.Snapshot()
	items, loaded := snap.Value()
	query, view := v.filter.Apply(items)
	out := ListRender[C]{
		Status:   snap.Status,
		Query:    query,
		Items:    []C{},
		Error:    snap.Info(),
		InFlight: v.coord.InFlight(),
	}
	if loaded {
		out.Total = len(items)
		out.Matched = len(view)
		out.Items = make([]C, 0, len(view))
		for _, item := range view {
			out.Items = append(out.Items, v.present(item))
		}
	}
	return out
}

// Detail loads a single entity into its own short-lived state.
func (v *ListView[E, C]) Detail(ctx context.Context, id int64) (resource.Snapshot[C], error) {
	return LoadDetail(v.logg.WithResource(ctx, v.name), v.gw, id, v.present)
}

func (v *ListView[E, C]) Create(ctx context.Context, body gateway.Body) (mutations.Result[E], error) {
	return v.coord.Create(ctx, body)
}

func (v *ListView[E, C]) Update(ctx context.Context, id int64, body gateway.Body) (mutations.Result[E], error) {
	return v.coord.Update(ctx, id, body)
}

func (v *ListView[E, C]) Remove(ctx context.Context, id int64, confirmer mutations.Confirmer) (mutations.Result[E], error) {
	return v.coord.Remove(ctx, id, confirmer)
}

// Present renders a single entity, e.g. the result of a mutation.
func (v *ListView[E, C]) Present(item E) C {
	return v.present(item)
}
