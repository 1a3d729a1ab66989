package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/autovoice/calllog/internal/campaign"
	"github.com/autovoice/calllog/internal/config"
	"github.com/autovoice/calllog/internal/db"
	"github.com/autovoice/calllog/internal/http/handlers"
	"github.com/autovoice/calllog/internal/http/middleware"
	"github.com/autovoice/calllog/internal/routing"
	"github.com/autovoice/calllog/internal/writer"

	_ "github.com/autovoice/calllog/docs"
)

func Router(cfg config.Config, store *db.Store, w *writer.Writer, camp *campaign.Service, routes routing.Table, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Writer:    w,
		Campaign:  camp,
		Routes:    routes,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)
	r.POST("/webhook", h.Webhook)
	r.POST("/test", h.DryRun)

	api := r.Group("/api")
	{
		api.GET("/destinations", h.DestinationsList)
	}

	admin := api.Group("/campaign")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/start", h.CampaignStart)
		admin.POST("/stop", h.CampaignStop)
		admin.GET("/status", h.CampaignStatus)
		admin.POST("/contacts", h.CampaignEnqueue)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
