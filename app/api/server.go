package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS for the static front end
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Public read endpoints
	r.GET("/activities", handler.GetActivities)
	r.GET("/activities/:id", handler.GetActivity)

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Mutation endpoints require the access key; every mutation goes through
	// a full reconciliation pass, there is no direct record write.
	api := r.Group("/api")
	api.Use(authMiddleware(apiAccessKey))
	{
		api.POST("/reconcile", handler.Reconcile)
		api.POST("/import", handler.ImportSheet)
		api.POST("/export", handler.ExportSheet)
		api.GET("/runs", handler.ListRuns)
		api.GET("/runs/:id", handler.GetRun)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Activity Comb",
			"description": "Activity guide curation with reconciliation, deduplication, and text cleanup",
			"endpoints": map[string]string{
				"activities": "/activities",
				"activity":   "/activities/<id>",
				"health":     "/health",
				"stats":      "/stats",
				"metrics":    "/metrics",
				"reconcile":  "/api/reconcile (POST, requires X-API-Key)",
				"import":     "/api/import (POST multipart, requires X-API-Key)",
				"export":     "/api/export (POST, requires X-API-Key)",
				"runs":       "/api/runs (requires X-API-Key)",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware guards mutation endpoints with the configured access key.
// With no key configured the endpoints are disabled rather than open.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiAccessKey == "" {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "API disabled",
				"message": "Set API_ACCESS_KEY to enable mutation endpoints",
			})
			c.Abort()
			return
		}

		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
