package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/persistence"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabaseChecker reports database reachability and pool statistics
type DatabaseChecker interface {
	Ping() error
	Stats() (persistence.ConnectionStats, error)
}

// HealthHandler answers liveness and readiness checks
type HealthHandler struct {
	BaseHandler
	db        DatabaseChecker
	name      string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabaseChecker, name string) *HealthHandler {
	return &HealthHandler{db: db, name: name, startTime: time.Now()}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string                       `json:"status"`
	Name      string                       `json:"name"`
	GoVersion string                       `json:"go_version"`
	Uptime    string                       `json:"uptime"`
	Database  string                       `json:"database"`
	Pool      *persistence.ConnectionStats `json:"pool,omitempty"`
}

// RegisterRoutes registers GET /health on rg
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports 200 when the database answers a ping, 503 otherwise
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  "up",
	}

	if err := h.db.Ping(); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	if stats, err := h.db.Stats(); err == nil {
		resp.Pool = &stats
	}

	h.Success(c, resp)
}
