package mutations

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/internal/listfilter"
	"github.com/angelmondragon/bazaar-console/internal/resource"
	"github.com/angelmondragon/bazaar-console/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

type account struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

func accountID(a account) int64 { return a.ID }

type fakeGateway struct {
	mu        sync.Mutex
	items     []account
	createErr error
	updateErr error
	removeErr error
	created   account
	removed   []int64
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeGateway) Name() string { return "user" }

func (f *fakeGateway) List(context.Context) ([]account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]account(nil), f.items...), nil
}

func (f *fakeGateway) Create(context.Context, gateway.Body) (account, error) {
	if f.createErr != nil {
		return account{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeGateway) Update(_ context.Context, id int64, _ gateway.Body) (account, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	if f.updateErr != nil {
		return account{}, f.updateErr
	}
	return account{ID: id, UserName: "renamed"}, nil
}

func (f *fakeGateway) Remove(_ context.Context, id int64) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	kept := f.items[:0:0]
	for _, item := range f.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func yes() Confirmer {
	v := true
	return Answer(&v)
}

func no() Confirmer {
	v := false
	return Answer(&v)
}

func loadedState(t *testing.T, items []account, opts ...resource.Option[[]account]) *resource.State[[]account] {
	t.Helper()
	state := resource.New(opts...)
	_, err := state.Load(context.Background(), func(context.Context) ([]account, error) {
		return items, nil
	})
	require.NoError(t, err)
	return state
}

func collection(t *testing.T, state *resource.State[[]account]) []account {
	t.Helper()
	items, ok := state.Snapshot().Value()
	require.True(t, ok)
	return items
}

func TestEndToEndFilterCreateRemove(t *testing.T) {
	engine := listfilter.New(func(a account) []string { return []string{a.UserName} })
	state := resource.New(resource.WithObserver(func(s resource.Snapshot[[]account]) {
		if items, ok := s.Value(); ok {
			engine.SetSource(items)
		}
	}))
	_, err := state.Load(context.Background(), func(context.Context) ([]account, error) {
		return []account{{ID: 1, UserName: "ada"}, {ID: 2, UserName: "grace"}}, nil
	})
	require.NoError(t, err)

	view := engine.SetQuery("ad")
	require.Len(t, view, 1)
	assert.Equal(t, int64(1), view[0].ID)

	gw := &fakeGateway{created: account{ID: 3, UserName: "alan"}}
	coord := NewCoordinator[account](gw, state, accountID)

	res, err := coord.Create(context.Background(), gateway.JSONBody(map[string]string{"userName": "alan"}))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	items := collection(t, state)
	require.Len(t, items, 3)
	assert.Equal(t, int64(3), items[2].ID)

	res, err = coord.Remove(context.Background(), 2, yes())
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, []account{{ID: 1, UserName: "ada"}, {ID: 3, UserName: "alan"}}, collection(t, state))
	assert.Equal(t, []account{{ID: 1, UserName: "ada"}}, engine.View())
}

func TestRemoveDeclinedLeavesCollection(t *testing.T) {
	state := loadedState(t, []account{{ID: 1}, {ID: 2}})
	gw := &fakeGateway{}
	coord := NewCoordinator[account](gw, state, accountID)

	res, err := coord.Remove(context.Background(), 2, no())
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Len(t, collection(t, state), 2)
	assert.Empty(t, gw.removed)
	assert.Empty(t, coord.InFlight())
}

func TestRemoveWithoutAnswerRequiresConfirmation(t *testing.T) {
	state := loadedState(t, []account{{ID: 1}})
	gw := &fakeGateway{}
	coord := NewCoordinator[account](gw, state, accountID)

	res, err := coord.Remove(context.Background(), 1, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConfirmationRequired))
	assert.True(t, res.Mutation.ConfirmationRequired)
	assert.Equal(t, enums.MutationKindDelete, res.Mutation.Kind)
	assert.Len(t, collection(t, state), 1)
	assert.Empty(t, gw.removed)
}

func TestRemoveFailureLeavesCollection(t *testing.T) {
	state := loadedState(t, []account{{ID: 1}, {ID: 2}})
	gw := &fakeGateway{removeErr: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}
	coord := NewCoordinator[account](gw, state, accountID)

	_, err := coord.Remove(context.Background(), 2, yes())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	assert.Len(t, collection(t, state), 2)
}

func TestUpdateReplacesByID(t *testing.T) {
	state := loadedState(t, []account{{ID: 1, UserName: "ada"}, {ID: 2, UserName: "grace"}})
	coord := NewCoordinator[account](&fakeGateway{}, state, accountID)

	res, err := coord.Update(context.Background(), 2, gateway.JSONBody(nil))
	require.NoError(t, err)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "renamed", res.Entity.UserName)
	assert.Equal(t, []account{{ID: 1, UserName: "ada"}, {ID: 2, UserName: "renamed"}}, collection(t, state))
}

func TestUpdateFailureSurfacesValidation(t *testing.T) {
	state := loadedState(t, []account{{ID: 1, UserName: "ada"}})
	gw := &fakeGateway{updateErr: pkgerrors.New(pkgerrors.CodeValidation, "Email is invalid")}
	coord := NewCoordinator[account](gw, state, accountID)

	_, err := coord.Update(context.Background(), 1, gateway.JSONBody(nil))
	require.Error(t, err)
	assert.Equal(t, "Email is invalid", pkgerrors.As(err).Message())
	assert.Equal(t, []account{{ID: 1, UserName: "ada"}}, collection(t, state))
}

func TestSecondMutationOnSameTargetConflicts(t *testing.T) {
	state := loadedState(t, []account{{ID: 1, UserName: "ada"}})
	gw := &fakeGateway{block: make(chan struct{}), entered: make(chan struct{})}
	coord := NewCoordinator[account](gw, state, accountID)

	done := make(chan error, 1)
	go func() {
		_, err := coord.Update(context.Background(), 1, gateway.JSONBody(nil))
		done <- err
	}()
	<-gw.entered

	inflight := coord.InFlight()
	require.Len(t, inflight, 1)
	assert.Equal(t, enums.MutationKindUpdate, inflight[0].Kind)
	require.NotNil(t, inflight[0].TargetID)
	assert.Equal(t, int64(1), *inflight[0].TargetID)

	_, err := coord.Remove(context.Background(), 1, yes())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Empty(t, gw.removed)

	close(gw.block)
	require.NoError(t, <-done)
	assert.Empty(t, coord.InFlight())

	_, err = coord.Remove(context.Background(), 1, yes())
	require.NoError(t, err)
	assert.Empty(t, collection(t, state))
}

func TestCreateWithoutEntityReloads(t *testing.T) {
	state := loadedState(t, []account{{ID: 1}})
	gw := &fakeGateway{
		createErr: pkgerrors.Wrap(pkgerrors.CodeDependency, gateway.ErrEmptyBody, "user created without returning it"),
		items:     []account{{ID: 1}, {ID: 9, UserName: "new"}},
	}
	coord := NewCoordinator[account](gw, state, accountID)

	res, err := coord.Create(context.Background(), gateway.JSONBody(nil))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Reloaded)
	assert.Nil(t, res.Entity)
	assert.Len(t, collection(t, state), 2)
}

func TestMutationSkipsLocalUpdateWhenNotLoaded(t *testing.T) {
	state := resource.New[[]account]()
	gw := &fakeGateway{created: account{ID: 5}}
	coord := NewCoordinator[account](gw, state, accountID)

	res, err := coord.Create(context.Background(), gateway.JSONBody(nil))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, enums.LoadStatusIdle, state.Snapshot().Status)
}

func TestRemoveDuringReloadSupersedesStaleLoad(t *testing.T) {
	before := []account{{ID: 1, UserName: "ada"}, {ID: 2, UserName: "grace"}}
	state := loadedState(t, before)
	gw := &fakeGateway{items: before}
	coord := NewCoordinator[account](gw, state, accountID)

	fetched := make(chan struct{})
	release := make(chan struct{})
	loadErr := make(chan error, 1)
	go func() {
		_, err := state.Load(context.Background(), func(ctx context.Context) ([]account, error) {
			items, err := gw.List(ctx)
			close(fetched)
			<-release
			return items, err
		})
		loadErr <- err
	}()
	<-fetched

	res, err := coord.Remove(context.Background(), 2, yes())
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Reloaded)

	close(release)
	assert.ErrorIs(t, <-loadErr, resource.ErrStale)
	assert.Equal(t, []account{{ID: 1, UserName: "ada"}}, collection(t, state))
}
