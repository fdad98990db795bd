package controllers

import (
	"context"

	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/internal/mutations"
	"github.com/angelmondragon/bazaar-console/internal/resource"
)

// ListScreen is a searchable collection screen with write-through mutations.
// console.ListView implements it.
type ListScreen[E, C any] interface {
	Open(ctx context.Context) (console.ListRender[C], error)
	Reload(ctx context.Context) (console.ListRender[C], error)
	Search(query string) console.ListRender[C]
	Detail(ctx context.Context, id int64) (resource.Snapshot[C], error)
	Create(ctx context.Context, body gateway.Body) (mutations.Result[E], error)
	Update(ctx context.Context, id int64, body gateway.Body) (mutations.Result[E], error)
	Remove(ctx context.Context, id int64, confirmer mutations.Confirmer) (mutations.Result[E], error)
	Present(item E) C
}

type mutationResponse[C any] struct {
	Applied  bool                      `json:"applied"`
	Reloaded bool                      `json:"reloaded"`
	Mutation mutations.PendingMutation `json:"mutation"`
	Item     *C                        `json:"item,omitempty"`
}

func newMutationResponse[E, C any](screen ListScreen[E, C], res mutations.Result[E]) mutationResponse[C] {
	out := mutationResponse[C]{Applied: res.Applied, Reloaded: res.Reloaded, Mutation: res.Mutation}
	if res.Entity != nil {
		item := screen.Present(*res.Entity)
		out.Item = &item
	}
	return out
}
