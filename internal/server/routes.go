package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupRoutes configures all HTTP routes and middleware.
func setupRoutes(h *Handlers, logger *zap.Logger, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(CORSMiddleware(origins))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		routesAPI := api.Group("/routes")
		{
			routesAPI.POST("/verify", h.VerifyRoutes)
			routesAPI.GET("/report", h.RouteReport)
			routesAPI.GET("/failed", h.FailedRoutes)
			routesAPI.GET("/warnings", h.WarningRoutes)
			routesAPI.GET("/breadcrumbs", h.MissingBreadcrumbs)
			routesAPI.GET("/accessibility", h.RouteAccessibility)
			routesAPI.GET("/performance", h.RoutePerformance)
		}

		linksAPI := api.Group("/links")
		{
			linksAPI.POST("/check", h.CheckLinks)
			linksAPI.POST("/scan", h.ScanLinks)
			linksAPI.GET("/report", h.LinkReport)
			linksAPI.GET("/invalid", h.InvalidLinks)
			linksAPI.GET("/slow", h.SlowLinks)
			linksAPI.GET("/external", h.ExternalLinks)
			linksAPI.GET("/redirects", h.RedirectLinks)
			linksAPI.GET("/accessibility", h.LinkAccessibility)
			linksAPI.DELETE("/cache", h.ClearLinkCache)
			linksAPI.POST("/trusted-domains", h.AddTrustedDomain)
			linksAPI.POST("/rules", h.AddValidationRule)
		}

		runsAPI := api.Group("/runs")
		{
			runsAPI.POST("", h.SaveRun)
			runsAPI.GET("", h.ListRuns)
			runsAPI.GET("/:id", h.GetRun)
			runsAPI.DELETE("/:id", h.DeleteRun)
		}
	}

	return r
}
