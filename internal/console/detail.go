package console

import (
	"context"

	"github.com/angelmondragon/bazaar-console/internal/resource"
)

// Getter fetches one entity by id.
type Getter[E any] interface {
	Get(ctx context.Context, id int64) (E, error)
}

// LoadDetail runs a detail screen: a fresh state is created for the request, loaded once
// and discarded after rendering.
func LoadDetail[E, C any](ctx context.Context, gw Getter[E], id int64, present func(E) C) (resource.Snapshot[C], error) {
	state := resource.New[C]()
	return state.Load(ctx, func(ctx context.Context) (C, error) {
		item, err := gw.Get(ctx, id)
		if err != nil {
			var zero C
			return zero, err
		}
		return present(item), nil
	})
}
