package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/api/handlers"
	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/web"
)

// Dependencies are the collaborators the routes are wired to. Store is nil
// for the in-memory session backend; FiguresDir may be empty, which leaves
// /figures unserved.
type Dependencies struct {
	Wizard     handlers.WizardController
	Models     handlers.ModelsSource
	Prediction handlers.PredictionHealth
	Store      handlers.StorePinger
	Pages      *web.Handler
	FiguresDir string
	Version    string
}

// SetupRoutes registers every page, form post and API endpoint.
func SetupRoutes(router *gin.Engine, d Dependencies) {
	health := handlers.NewHealthHandler(d.Prediction, d.Store, d.Version)
	router.GET("/health", middleware.HealthCheckTelemetryMiddleware(), health.HealthCheck)
	router.HEAD("/health", middleware.HealthCheckTelemetryMiddleware(), health.HealthCheck)

	router.StaticFS("/static", web.StaticFS())
	if d.FiguresDir != "" {
		router.Static("/figures", d.FiguresDir)
	}

	// Pages
	router.GET("/", d.Pages.Landing)
	router.GET("/data", d.Pages.Data)
	router.GET("/training", d.Pages.Training)
	router.GET("/charts/:name", d.Pages.Chart)

	demo := router.Group("/demo")
	{
		demo.GET("", d.Pages.Demo)
		demo.POST("/step", d.Pages.PostStep)
		demo.POST("/preset/:id", d.Pages.PostPreset)
		demo.POST("/retry", d.Pages.PostRetry)
		demo.POST("/modify", d.Pages.PostModify)
		demo.POST("/reset", d.Pages.PostReset)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		wizard := handlers.NewWizardHandler(d.Wizard)
		v1.GET("/wizard", wizard.GetWizard)
		v1.POST("/wizard/actions", wizard.PostAction)

		form := handlers.NewFormHandler()
		v1.GET("/form", form.GetSchema)
		v1.GET("/presets", form.GetPresets)
		v1.POST("/features", form.PostFeatures)

		v1.GET("/models", handlers.NewModelsHandler(d.Models).GetModels)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Error:   http.StatusText(http.StatusNotFound),
			Message: "no route for " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})
}
