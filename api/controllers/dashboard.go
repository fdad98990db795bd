package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bazaar-console/api/responses"
	"github.com/angelmondragon/bazaar-console/api/validators"
	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

type DashboardScreen interface {
	Dashboard(ctx context.Context, refresh bool) (console.DashboardRender, error)
}

// Dashboard renders every home panel. A failing panel carries its own error and does not
// fail the response.
func Dashboard(screen DashboardScreen, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		refresh, err := validators.ParseQueryBool(r, "refresh", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		render, err := screen.Dashboard(ctx, refresh)
		if err != nil {
			ctx = logg.WithField(ctx, "error", err.Error())
			logg.Warn(ctx, "dashboard rendered with failing panels")
		}
		responses.WriteSuccess(w, render)
	}
}
