// Package httpapi wires the HTTP transport (Gin) to the broker services,
// middleware, and route handlers. Cross-cutting concerns live here: tracing,
// correlation IDs, caller identity, logging with redaction, panic recovery,
// metrics, idempotency, rate limiting, CORS, security headers and compression.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-intro-broker/docs" // registers the OpenAPI doc with swag
	"github.com/tbourn/go-intro-broker/internal/config"
	"github.com/tbourn/go-intro-broker/internal/http/handlers"
	"github.com/tbourn/go-intro-broker/internal/http/middleware"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/services"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

// Services are the application services behind the routes.
type Services struct {
	Contacts      *services.ContactService
	Connections   *services.ConnectionService
	Introductions *services.IntroductionService
	Renderer      *services.RenderService
	Dispatch      *services.DispatchService
}

// NewServices builds the service graph over db, the template registry and
// the outbound transport.
func NewServices(db *gorm.DB, reg *templates.Registry, sender outbound.Sender, cfg config.Config) Services {
	contacts := services.NewContactService(db)
	conns := services.NewConnectionService(db)
	renderer := services.NewRenderService(reg, cfg.Dispatch.SMSLimit)
	dispatch := services.NewDispatchService(db, contacts, conns, renderer, sender,
		cfg.Dispatch.Concurrency, cfg.Dispatch.RPS, cfg.Dispatch.Lease)
	dispatch.BaseURL = cfg.PublicBaseURL

	var notifier services.IntroductionNotifier
	if cfg.IntroNotify {
		notifier = dispatch
	}
	return Services{
		Contacts:      contacts,
		Connections:   conns,
		Introductions: services.NewIntroductionService(db, notifier),
		Renderer:      renderer,
		Dispatch:      dispatch,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r and mounts
// the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID, then CallerIdentity so logs carry both
//  3. RedactingLogger: structured logs with contact data scrubbed
//  4. Recovery
//  5. CORS (preflights end here)
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. Security headers, gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	r.Use(middleware.RequestID())
	r.Use(middleware.CallerIdentity())

	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	r.Use(middleware.Recovery())

	// Preflights are answered here, ahead of the body limit, idempotency and
	// rate limiting, and ahead of the 405 fallback for OPTIONS.
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// ACAO: * even without an Origin header (health checks, curl).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 1 MiB
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		DisableCompression: true,
	})))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Rendered bodies and batch ledgers compress well; metrics are scraped raw.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Contacts:       svc.Contacts,
		Connections:    svc.Connections,
		Introductions:  svc.Introductions,
		Renderer:       svc.Renderer,
		Dispatch:       svc.Dispatch,
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Contacts and identities
		api.GET("/contacts", h.ResolveContacts)
		api.POST("/contacts", h.CreateContact)
		api.PUT("/contacts/:id", h.UpdateContact)
		api.PUT("/identities/:id", h.SyncIdentity)

		// Connections
		api.POST("/connection-requests", h.SendConnectionRequest)
		api.GET("/connection-requests", h.ListConnectionRequests)
		api.POST("/connection-requests/:id/respond", h.RespondToConnectionRequest)
		api.GET("/connections", h.ListConnections)

		// Introductions
		api.POST("/introductions", h.CreateIntroduction)
		api.GET("/introductions", h.ListIntroductions)
		api.GET("/introductions/:id", h.GetIntroduction)
		api.POST("/introductions/:id/respond", h.RespondToIntroduction)
		api.GET("/introductions/:id/counterpart", h.GetCounterpart)

		// Messages and templates
		api.POST("/messages/render", h.RenderMessage)
		api.POST("/messages/excerpt", h.ExtractExcerpt)
		api.POST("/messages/rebuild", h.RebuildBody)
		api.GET("/templates", h.ListTemplates)

		// Batches
		api.POST("/batches", h.CreateBatch)
		api.GET("/batches/:id", h.GetBatch)
		api.POST("/batches/:id/dispatch", h.DispatchBatch)
	}
}

// limitBody caps the request body at maxBytes. Oversized bodies make
// downstream reads fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
