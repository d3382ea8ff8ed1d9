package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/pkg/config"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
)

const readinessTimeout = 3 * time.Second

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GTClicks-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the hard dependencies. Redis is optional in
// development, so a nil client is simply skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GTClicks-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				checks["database"] = "unavailable"
				failed = true
			} else {
				checks["database"] = "ok"
			}
		}
		if redis != nil {
			if err := redis.Ping(ctx); err != nil {
				checks["redis"] = "unavailable"
				failed = true
			} else {
				checks["redis"] = "ok"
			}
		}

		if failed {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
