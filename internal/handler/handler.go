package handler

import (
	"net/http"
	"time"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	MESSAGES_PER_WINDOW = 5
	MESSAGES_WINDOW     = time.Minute

	identityKey = "identity"
)

type Handler struct {
	logger       *zap.Logger
	services     *service.Service
	verifier     *identity.Verifier
	clientOrigin string
	limiter      *IPRateLimiter
	registry     *prometheus.Registry
	metrics      *metrics
}

func New(logger *zap.Logger, services *service.Service, verifier *identity.Verifier, clientOrigin string) *Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Handler{
		logger:       logger,
		services:     services,
		verifier:     verifier,
		clientOrigin: clientOrigin,
		limiter:      NewIPRateLimiter(MESSAGES_PER_WINDOW, MESSAGES_WINDOW),
		registry:     registry,
		metrics:      newMetrics(registry),
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), h.requestIDMiddleware, h.metricsMiddleware, h.loggingMiddleware)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{h.clientOrigin},
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", h.notRequiredAuthMiddleware, h.postsGet)
			posts.POST("", h.authMiddleware, h.postsCreate)

			post := posts.Group("/:postID")
			{
				post.GET("", h.notRequiredAuthMiddleware, h.postsGetByID)
				post.GET("/permission", h.notRequiredAuthMiddleware, h.postsGetPermission)
				post.PUT("", h.authMiddleware, h.postsUpdate)
				post.DELETE("", h.authMiddleware, h.postsDelete)
			}
		}

		v1.POST("/messages", h.rateLimitMiddleware, h.messagesCreate)
	}

	return r
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewBasicResponse(true, "ok"))
}

// getIdentityFromRequest returns nil for anonymous requests.
func (h *Handler) getIdentityFromRequest(c *gin.Context) *model.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}

	ident, ok := v.(model.Identity)
	if !ok {
		return nil
	}

	return &ident
}
