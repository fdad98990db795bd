package controllers

import (
	"net/http"

	"github.com/angelmondragon/bazaar-console/api/responses"
	"github.com/angelmondragon/bazaar-console/api/validators"
	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/internal/mutations"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

const maxQueryLength = 200

// ListCollection renders a collection screen. The first call loads the collection and
// refresh=true reloads it; a q parameter, even empty, replaces the search query. Load
// failures are reported inside the rendered view.
func ListCollection[E, C any](screen ListScreen[E, C], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		refresh, err := validators.ParseQueryBool(r, "refresh", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var render console.ListRender[C]
		if refresh {
			render, _ = screen.Reload(ctx)
		} else {
			render, _ = screen.Open(ctx)
		}
		if r.URL.Query().Has("q") {
			render = screen.Search(validators.ParseSearchQuery(r, "q", maxQueryLength))
		}
		responses.WriteSuccess(w, render)
	}
}

// GetItem renders one entity fetched fresh from the backend.
func GetItem[E, C any](screen ListScreen[E, C], idParam string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseIDParam(r, idParam)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		snap, err := screen.Detail(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, _ := snap.Value()
		responses.WriteSuccess(w, item)
	}
}

// DeleteItem removes an entity. confirm must be given explicitly: absent yields 428,
// false declines with nothing changed.
func DeleteItem[E, C any](screen ListScreen[E, C], idParam string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseIDParam(r, idParam)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		confirm, present, err := validators.ParseOptionalQueryBool(r, "confirm")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var answer *bool
		if present {
			answer = &confirm
		}

		res, err := screen.Remove(ctx, id, mutations.Answer(answer))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(screen, res))
	}
}
