package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"paybridge/internal/app"
	"paybridge/internal/config"
	"paybridge/internal/handlers"
	"paybridge/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware applies the CORS policy.
// Priority: environment variable > YAML config > default (*).
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		var allowedOrigins []string
		allowCredentials := true
		maxAge := 3600

		if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
			for _, o := range strings.Split(envOrigins, ",") {
				if trimmed := strings.TrimSpace(o); trimmed != "" {
					allowedOrigins = append(allowedOrigins, trimmed)
				}
			}
		} else if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		} else {
			allowedOrigins = []string{"*"}
		}

		allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
		originAllowed := allowAll
		if !allowAll && origin != "" {
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					originAllowed = true
					break
				}
			}
			if !originAllowed {
				logrus.WithFields(logrus.Fields{
					"request_origin":  origin,
					"allowed_origins": allowedOrigins,
					"path":            c.Request.URL.Path,
				}).Warn("🚫 CORS: Request blocked, origin not in whitelist")
			}
		}

		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if originAllowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Next()
	}
}

// SetupRouter wires every HTTP route over the service container.
func SetupRouter(container *app.ServiceContainer) *gin.Engine {
	if config.AppConfig != nil && config.AppConfig.Server.Mode != "" {
		gin.SetMode(config.AppConfig.Server.Mode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())

	logger := logrus.New()
	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	localhostOnly := middleware.NewLocalhostOnly(logger, allowedIPs)
	authMW := middleware.NewAuthMiddleware(logger)
	adminMW := middleware.NewAdminAuthMiddleware(logger)

	// ============ Liveness ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", handlers.HealthCheckHandler)
	r.GET("/api/health", handlers.HealthCheckHandler)
	r.GET("/api/health/db", handlers.DatabaseHealthCheckHandler)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API v1 ============
	v1 := r.Group("/api/v1")
	{
		// Auth
		v1.GET("/auth/nonce", container.Handlers.Auth.GenerateNonceHandler)
		v1.POST("/auth/login", container.Handlers.Auth.AuthenticateHandler)

		// Quotes
		v1.POST("/quotes", container.Handlers.Quote.GetQuotesHandler)
		v1.POST("/quotes/sessions", container.Handlers.Quote.OpenSessionHandler)
		v1.GET("/quotes/sessions/:id", container.Handlers.Quote.GetSessionHandler)
		v1.PUT("/quotes/sessions/:id", container.Handlers.Quote.UpdateSessionHandler)
		v1.DELETE("/quotes/sessions/:id", container.Handlers.Quote.CloseSessionHandler)

		// Bills and intents
		v1.POST("/bills", container.Handlers.Bill.CreateBillHandler)
		v1.GET("/bills/:id", container.Handlers.Bill.GetBillHandler)
		v1.GET("/bills/:id/intents", container.Handlers.Bill.ListBillIntentsHandler)
		v1.POST("/deposits", container.Handlers.Intent.CreateDepositHandler)
		v1.GET("/intents/:id", container.Handlers.Intent.GetIntentHandler)
		v1.PATCH("/intents/:id", container.Handlers.Intent.UpdateIntentHandler)
		v1.POST("/intents/:id/complete", container.Handlers.Intent.CompleteIntentHandler)

		// Executions require an authenticated session.
		executions := v1.Group("/executions", authMW.RequireAuth())
		{
			executions.POST("", container.Handlers.Execution.StartExecutionHandler)
			executions.POST("/resume", container.Handlers.Execution.ResumeDetachedHandler)
			executions.GET("/:id", container.Handlers.Execution.GetExecutionHandler)
			executions.POST("/:id/retry", container.Handlers.Execution.RetryExecutionHandler)
			executions.POST("/:id/cancel", container.Handlers.Execution.CancelExecutionHandler)
			executions.POST("/:id/resume", container.Handlers.Execution.ResumeExecutionHandler)
		}

		// Prices
		v1.GET("/prices/:symbol", container.Handlers.Price.GetTokenPriceHandler)

		// Real-time push
		v1.GET("/ws", container.Handlers.WebSocket.HandleWebSocket)

		// Admin: IP-restricted login, token-gated actions.
		admin := v1.Group("/admin", localhostOnly.Restrict())
		{
			admin.POST("/login", container.Handlers.AdminAuth.AdminLoginHandler)
			admin.POST("/totp/generate", container.Handlers.AdminAuth.GenerateTOTPSecretHandler)

			protected := admin.Group("", adminMW.RequireAdmin())
			{
				protected.POST("/intents/sweep", container.Handlers.Admin.SweepExpiredHandler)
				protected.GET("/status", container.Handlers.Admin.StatusHandler)
			}
		}
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check /api/v1 endpoints for available APIs",
		})
	})

	return r
}
