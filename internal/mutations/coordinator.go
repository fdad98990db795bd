package mutations

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/internal/resource"
	"github.com/angelmondragon/bazaar-console/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

// Gateway is the slice of gateway.Resource the coordinator writes through.
type Gateway[E any] interface {
	Name() string
	List(ctx context.Context) ([]E, error)
	Create(ctx context.Context, body gateway.Body) (E, error)
	Update(ctx context.Context, id int64, body gateway.Body) (E, error)
	Remove(ctx context.Context, id int64) error
}

// Coordinator owns the call-then-reconcile sequence for writes against one collection.
// Only one mutation per target id may be in flight; a second one is refused with CONFLICT.
type Coordinator[E any] struct {
	gw    Gateway[E]
	state *resource.State[[]E]
	idOf  func(E) int64
	now   func() time.Time
	logg  *logger.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]PendingMutation
	targets  map[int64]uuid.UUID
}

type Option[E any] func(*Coordinator[E])

func WithLogger[E any](logg *logger.Logger) Option[E] {
	return func(c *Coordinator[E]) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithClock[E any](now func() time.Time) Option[E] {
	return func(c *Coordinator[E]) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCoordinator[E any](gw Gateway[E], state *resource.State[[]E], idOf func(E) int64, opts ...Option[E]) *Coordinator[E] {
	c := &Coordinator[E]{
		gw:       gw,
		state:    state,
		idOf:     idOf,
		now:      time.Now,
		logg:     logger.Nop(),
		inflight: make(map[uuid.UUID]PendingMutation),
		targets:  make(map[int64]uuid.UUID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Create posts body and inserts the returned entity. When the backend returns no entity
// the collection is reloaded instead.
func (c *Coordinator[E]) Create(ctx context.Context, body gateway.Body) (Result[E], error) {
	m := c.newPending(enums.MutationKindCreate, nil)
	if err := c.claim(m); err != nil {
		return Result[E]{Mutation: m}, err
	}
	defer c.release(m)
	ctx = c.scope(ctx, m)

	created, err := c.gw.Create(ctx, body)
	if err != nil {
		if errors.Is(err, gateway.ErrEmptyBody) {
			c.logg.Warn(ctx, "create returned no entity, reloading collection")
			c.reload(ctx)
			return Result[E]{Mutation: m, Applied: true, Reloaded: true}, nil
		}
		c.logg.Error(ctx, "create failed", err)
		return Result[E]{Mutation: m}, err
	}

	reloaded := c.patch(ctx, func(items []E) []E {
		out := make([]E, 0, len(items)+1)
		out = append(out, items...)
		return append(out, created)
	})
	c.logg.Info(ctx, "entity created")
	return Result[E]{Mutation: m, Applied: true, Entity: &created, Reloaded: reloaded}, nil
}

// Update replaces the entity with the given id, locally and on the backend.
func (c *Coordinator[E]) Update(ctx context.Context, id int64, body gateway.Body) (Result[E], error) {
	m := c.newPending(enums.MutationKindUpdate, &id)
	if err := c.claim(m); err != nil {
		return Result[E]{Mutation: m}, err
	}
	defer c.release(m)
	ctx = c.scope(ctx, m)

	updated, err := c.gw.Update(ctx, id, body)
	if err != nil {
		c.logg.Error(ctx, "update failed", err)
		return Result[E]{Mutation: m}, err
	}

	reloaded := c.patch(ctx, func(items []E) []E {
		out := make([]E, len(items))
		for i, item := range items {
			if c.idOf(item) == id {
				out[i] = updated
				continue
			}
			out[i] = item
		}
		return out
	})
	c.logg.Info(ctx, "entity updated")
	return Result[E]{Mutation: m, Applied: true, Entity: &updated, Reloaded: reloaded}, nil
}

// Remove deletes the entity once confirmer agrees. Declining, or a confirmer error,
// aborts before the backend is called.
func (c *Coordinator[E]) Remove(ctx context.Context, id int64, confirmer Confirmer) (Result[E], error) {
	m := c.newPending(enums.MutationKindDelete, &id)
	if err := c.claim(m); err != nil {
		return Result[E]{Mutation: m}, err
	}
	defer c.release(m)
	ctx = c.scope(ctx, m)

	if confirmer == nil {
		confirmer = Answer(nil)
	}
	ok, err := confirmer.Confirm(ctx, m)
	if err != nil {
		return Result[E]{Mutation: m}, err
	}
	if !ok {
		c.logg.Debug(ctx, "delete declined")
		return Result[E]{Mutation: m}, nil
	}

	if err := c.gw.Remove(ctx, id); err != nil {
		c.logg.Error(ctx, "delete failed", err)
		return Result[E]{Mutation: m}, err
	}

	reloaded := c.patch(ctx, func(items []E) []E {
		out := make([]E, 0, len(items))
		for _, item := range items {
			if c.idOf(item) != id {
				out = append(out, item)
			}
		}
		return out
	})
	c.logg.Info(ctx, "entity deleted")
	return Result[E]{Mutation: m, Applied: true, Reloaded: reloaded}, nil
}

// InFlight lists the mutations that have not settled yet, oldest first.
func (c *Coordinator[E]) InFlight() []PendingMutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PendingMutation, 0, len(c.inflight))
	for _, m := range c.inflight {
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b PendingMutation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func (c *Coordinator[E]) newPending(kind enums.MutationKind, target *int64) PendingMutation {
	return PendingMutation{
		ID:                   uuid.New(),
		Kind:                 kind,
		Resource:             c.gw.Name(),
		TargetID:             target,
		ConfirmationRequired: kind.RequiresConfirmation(),
		CreatedAt:            c.now().UTC(),
	}
}

func (c *Coordinator[E]) claim(m PendingMutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.TargetID != nil {
		if holder, busy := c.targets[*m.TargetID]; busy {
			return pkgerrors.New(pkgerrors.CodeConflict, "another change to this entity is still in progress").
				WithDetails(map[string]any{
					"targetId":          *m.TargetID,
					"pendingMutationId": holder.String(),
					"pendingKind":       c.inflight[holder].Kind,
				})
		}
		c.targets[*m.TargetID] = m.ID
	}
	c.inflight[m.ID] = m
	return nil
}

func (c *Coordinator[E]) release(m PendingMutation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, m.ID)
	if m.TargetID != nil && c.targets[*m.TargetID] == m.ID {
		delete(c.targets, *m.TargetID)
	}
}

func (c *Coordinator[E]) scope(ctx context.Context, m PendingMutation) context.Context {
	ctx = c.logg.WithResource(ctx, m.Resource)
	return c.logg.WithMutationID(ctx, m.ID.String())
}

// patch applies update to the held collection and reports whether it reloaded instead.
// An idle or failed collection is left alone; its next load picks the change up from the
// backend. A load in flight may have fetched before the change landed, so it is
// superseded by a fresh one.
func (c *Coordinator[E]) patch(ctx context.Context, update func([]E) []E) bool {
	if err := c.state.MutateLocal(update); err == nil {
		return false
	}
	switch c.state.Snapshot().Status {
	case enums.LoadStatusLoading, enums.LoadStatusSuccess:
		c.logg.Debug(ctx, "collection load raced the mutation, reloading")
		c.reload(ctx)
		return true
	}
	c.logg.Debug(ctx, "collection not loaded, skipping local update")
	return false
}

func (c *Coordinator[E]) reload(ctx context.Context) {
	if _, err := c.state.Load(ctx, c.gw.List); err != nil && !errors.Is(err, resource.ErrStale) {
		c.logg.Error(ctx, "collection reload failed", err)
	}
}
