package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "planmatch-backend/internal/auth"
	"planmatch-backend/internal/bidrequests"
	"planmatch-backend/internal/bids"
	"planmatch-backend/internal/matching"
	"planmatch-backend/internal/notifications"
	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/config"
	"planmatch-backend/internal/shared/metrics"
	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
	"planmatch-backend/internal/usage"
	"planmatch-backend/internal/users"
)

const matchRateGroup = "MATCH"

// RouterDeps carries the wired handlers the router mounts.
type RouterDeps struct {
	Config              config.Config
	PlanHandler         *plans.Handler
	MatchHandler        *matching.Handler
	BidRequestHandler   *bidrequests.Handler
	BidHandler          *bids.Handler
	NotificationHandler *notifications.Handler
	UsageHandler        *usage.Handler
	UserHandler         *users.Handler
	GoogleAuth          *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	api.Use(
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(matchRateLimit()),
	)

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	deps.UserHandler.RegisterRoutes(api)
	deps.PlanHandler.RegisterRoutes(api)
	deps.MatchHandler.RegisterRoutes(api)
	deps.BidRequestHandler.RegisterRoutes(api)
	deps.BidHandler.RegisterRoutes(api)
	deps.NotificationHandler.RegisterRoutes(api)
	deps.UsageHandler.RegisterRoutes(api)

	return r
}

// matchRateLimit throttles match starts; everything else passes through.
func matchRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			matchRateGroup: {Rate: 0.5, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/matches") {
				return matchRateGroup
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
