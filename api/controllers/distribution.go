package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bazaar-console/api/responses"
	"github.com/angelmondragon/bazaar-console/api/validators"
	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

type DistributionScreen interface {
	Open(ctx context.Context) (console.DistributionRender, error)
	Reload(ctx context.Context) (console.DistributionRender, error)
}

// CategoryDistribution renders the category chart; failures are part of the render.
func CategoryDistribution(screen DistributionScreen, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		refresh, err := validators.ParseQueryBool(r, "refresh", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var render console.DistributionRender
		if refresh {
			render, _ = screen.Reload(ctx)
		} else {
			render, _ = screen.Open(ctx)
		}
		responses.WriteSuccess(w, render)
	}
}
