package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/RocketHubAI/rocket-dispatch/internal/api/dto"
)

type HealthHandler struct {
	db      *gorm.DB
	version string
	started time.Time
}

func NewHealthHandler(db *gorm.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, started: time.Now()}
}

// Health reports liveness plus a database ping.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	dto.WriteJSON(w, code, map[string]interface{}{
		"status":  status,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Live answers as soon as the process serves traffic, no dependencies.
// GET /health/live
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	dto.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
