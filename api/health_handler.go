package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aigenthix/cms-backend/cache"
	"github.com/aigenthix/cms-backend/database"
)

type healthHandler struct {
	responder Responder
	pool      *database.Pool
	cache     *cache.Service
	version   string
}

func newHealthHandler(pool *database.Pool, cacheSvc *cache.Service, version string) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder: NewResponder(logger),
		pool:      pool,
		cache:     cacheSvc,
		version:   version,
	}
}

type healthCheckResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database bool   `json:"database"`
	Cache    bool   `json:"cache"`
}

// check reports database and cache liveness. The cache being down does not
// make the service unhealthy; it only degrades reads.
func (h healthHandler) check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbHealthy := h.pool.HealthCheck(r.Context())

		status := "healthy"
		statusCode := http.StatusOK
		if !dbHealthy {
			status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}

		h.responder.WriteJSONStatus(w, statusCode, healthCheckResponse{
			Status:   status,
			Version:  h.version,
			Database: dbHealthy,
			Cache:    h.cache.Available(),
		})
	}
}
