package controllers

import (
	"net/http"

	"github.com/marisca-pt/marisca-backend/api/responses"
	"github.com/marisca-pt/marisca-backend/pkg/config"
	"github.com/marisca-pt/marisca-backend/pkg/db"
	"github.com/marisca-pt/marisca-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Marisca-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the datastores answer.
func HealthReady(cfg *config.Config, dbPinger db.Pinger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Marisca-Env", cfg.App.Env)

		checks := map[string]string{"status": "ready"}
		status := http.StatusOK

		if dbPinger != nil {
			if err := dbPinger.Ping(r.Context()); err != nil {
				checks["database"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		if redisPinger != nil {
			if err := redisPinger.Ping(r.Context()); err != nil {
				checks["redis"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		if status != http.StatusOK {
			checks["status"] = "degraded"
		}
		responses.WriteSuccessStatus(w, status, checks)
	}
}
