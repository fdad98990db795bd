package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/bazaar-console/api/responses"
	"github.com/angelmondragon/bazaar-console/pkg/config"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

const (
	envHeader        = "X-Bazaar-Env"
	readinessTimeout = 3 * time.Second
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the product/user backend answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, backend Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := backend.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend not ready").
					WithDetails(map[string]any{"dependency": "backend"}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
