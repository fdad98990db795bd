package mutations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaar-console/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

// PendingMutation describes a write that has been requested and not yet settled.
type PendingMutation struct {
	ID                   uuid.UUID          `json:"id"`
	Kind                 enums.MutationKind `json:"kind"`
	Resource             string             `json:"resource"`
	TargetID             *int64             `json:"targetId,omitempty"`
	ConfirmationRequired bool               `json:"confirmationRequired"`
	CreatedAt            time.Time          `json:"createdAt"`
}

// Confirmer resolves the yes/no gate of a destructive mutation.
type Confirmer interface {
	Confirm(ctx context.Context, m PendingMutation) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, m PendingMutation) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, m PendingMutation) (bool, error) {
	return f(ctx, m)
}

// Answer returns a Confirmer holding a caller-supplied answer. A nil answer refuses
// the mutation with CONFIRMATION_REQUIRED.
func Answer(answer *bool) Confirmer {
	return ConfirmFunc(func(_ context.Context, m PendingMutation) (bool, error) {
		if answer == nil {
			return false, pkgerrors.New(pkgerrors.CodeConfirmationRequired, "explicit confirmation is required").
				WithDetails(map[string]any{"kind": m.Kind, "resource": m.Resource, "targetId": m.TargetID})
		}
		return *answer, nil
	})
}

// Result reports how a mutation settled. Applied is false when the user declined.
// Reloaded is set when the collection was refetched instead of patched locally.
type Result[E any] struct {
	Mutation PendingMutation `json:"mutation"`
	Applied  bool            `json:"applied"`
	Entity   *E              `json:"entity,omitempty"`
	Reloaded bool            `json:"reloaded"`
}
