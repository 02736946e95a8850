package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/onec-docsearch/internal/store"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

type HealthHandler struct {
	store store.Store
	log   logger.Logger
}

func NewHealthHandler(st store.Store, log logger.Logger) *HealthHandler {
	return &HealthHandler{store: st, log: log}
}

// Health reports service liveness and search cluster reachability. The
// service stays "degraded" rather than unhealthy when the cluster is down:
// ingestion endpoints still answer.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	connected := true
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Warn("search cluster unreachable", logger.Error(err))
		status = "degraded"
		connected = false
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                  status,
		"elasticsearch_connected": connected,
	})
}
