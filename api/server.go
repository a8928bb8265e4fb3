package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"tender-scraper/models"
	"tender-scraper/orchestrator"
	"tender-scraper/storage"
)

// Scheduler is the part of the orchestrator the API reports on.
type Scheduler interface {
	State() orchestrator.State
	LastReport() *models.SweepReport
}

// Counter reports stored listings per source.
type Counter interface {
	CountBySource(ctx context.Context) (map[models.Source]int, error)
}

// Deps are the collaborators behind the routes. Nil members disable their
// routes.
type Deps struct {
	Scheduler Scheduler
	Counter   Counter
	Favorites storage.FavoriteStore
	Registry  *prometheus.Registry
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r, deps.Scheduler)
	if deps.Registry != nil {
		RegisterMetricsRoutes(r, deps.Registry)
	}
	if deps.Counter != nil {
		RegisterStatsRoutes(r, deps.Counter, deps.Scheduler)
	}
	if deps.Favorites != nil {
		RegisterFavoriteRoutes(r, deps.Favorites)
	}
	return r
}
