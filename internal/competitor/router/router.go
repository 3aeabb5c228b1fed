package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "pharma-pricing-api",
		})
	})

	competitorHandler := handler.NewCompetitorHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		competitors := v1.Group("/competitors")
		{
			// GET /api/v1/competitors - Competitors with counts and latest run
			competitors.GET("", competitorHandler.ListCompetitors)

			// GET /api/v1/competitors/drugs - Paged observation listing
			competitors.GET("/drugs", competitorHandler.ListDrugs)

			// GET /api/v1/competitors/drugs/unmatched - Observations without a match
			competitors.GET("/drugs/unmatched", competitorHandler.ListUnmatched)

			// GET /api/v1/competitors/drugs/:id - Single observation
			competitors.GET("/drugs/:id", competitorHandler.GetDrug)

			// PATCH /api/v1/competitors/drugs/:id/match - Link/unlink a catalog drug
			competitors.PATCH("/drugs/:id/match", competitorHandler.MatchDrug)

			// DELETE /api/v1/competitors/drugs/:competitor - Reset one source
			competitors.DELETE("/drugs/:competitor", competitorHandler.DeleteCompetitorDrugs)

			// GET /api/v1/competitors/logs - Run audit trail
			competitors.GET("/logs", competitorHandler.ListLogs)

			// GET /api/v1/competitors/scrapers - Registered scraper tokens
			competitors.GET("/scrapers", competitorHandler.ListScrapers)

			// POST /api/v1/competitors/scrape/:competitor - Trigger one run
			competitors.POST("/scrape/:competitor", competitorHandler.Scrape)
		}
	}

	return r
}
