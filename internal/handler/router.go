package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/middleware"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/view"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-console/pkg/middleware/requestid"
)

// NewRouter wires middlewares, pages and the JSON mirror onto a gin engine.
func NewRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, console *ConsoleHandler, metrics *MetricsHandler) (*gin.Engine, error) {
	tmpl, err := view.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SameOrigin(cfg.CORS.AllowedOrigins))

	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", console.Page)
	r.POST("/form", console.SubmitForm)
	r.POST("/form/reset", console.ResetForm)
	r.POST("/reload", console.Reload)

	rows := r.Group("/rows/:id")
	{
		rows.POST("/edit", console.EditRow)
		rows.GET("/delete", console.ConfirmDelete)
		rows.POST("/delete", console.DeleteRow)
	}

	exports := r.Group("/export")
	{
		exports.GET("/students.csv", console.ExportCSV)
		exports.GET("/students.pdf", console.ExportPDF)
	}

	api := r.Group("/console")
	{
		api.GET("/state", console.State)
		api.POST("/submit", console.APISubmit)
		api.POST("/reset", console.APIReset)
		api.POST("/reload", console.APIReload)
		api.POST("/rows/:id/:action", console.APIDispatch)
	}

	return r, nil
}
