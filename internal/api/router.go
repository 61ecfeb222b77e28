package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stanleykwembe/brilltech-mega/config"
	"github.com/stanleykwembe/brilltech-mega/internal/api/handler"
	"github.com/stanleykwembe/brilltech-mega/internal/api/middleware"
)

type Router struct {
	authHandler         *handler.AuthHandler
	subscriptionHandler *handler.SubscriptionHandler
	payfastHandler      *handler.PayFastHandler
	quotaHandler        *handler.QuotaHandler
	assignmentHandler   *handler.AssignmentHandler
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	payfastHandler *handler.PayFastHandler,
	quotaHandler *handler.QuotaHandler,
	assignmentHandler *handler.AssignmentHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		subscriptionHandler: subscriptionHandler,
		payfastHandler:      payfastHandler,
		quotaHandler:        quotaHandler,
		assignmentHandler:   assignmentHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// Public - auth
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// Public - plan catalogue
		api.GET("/plans", r.subscriptionHandler.ListPlans)

		// Gateway callback. Unauthenticated: PayFast signs the payload and
		// the handler verifies it end to end.
		api.POST("/payfast/notify", r.payfastHandler.Notify)

		// Authenticated
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/auth/profile", r.authHandler.Profile)

			subscription := authenticated.Group("/subscription")
			{
				subscription.GET("", r.subscriptionHandler.Current)
				subscription.POST("/upgrade", r.subscriptionHandler.Upgrade)
				subscription.POST("/cancel", r.subscriptionHandler.Cancel)
			}

			quota := authenticated.Group("/quota")
			{
				quota.GET("", r.quotaHandler.Summary)
				quota.GET("/check", r.quotaHandler.CheckFeature)
			}

			assignments := authenticated.Group("/assignments")
			{
				assignments.POST("/generate", r.assignmentHandler.Generate)
				assignments.GET("", r.assignmentHandler.List)
				assignments.GET("/:id", r.assignmentHandler.Get)
			}
		}
	}

	return engine
}
