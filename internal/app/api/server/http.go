package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/postback/docs"
	"github.com/fatflowers/postback/internal/app/api/handlers"
	mw "github.com/fatflowers/postback/internal/app/api/middleware"
	"github.com/fatflowers/postback/internal/app/service/commerce"
	"github.com/fatflowers/postback/internal/app/service/postback"
	"github.com/fatflowers/postback/internal/app/service/postback_log"
	"github.com/fatflowers/postback/internal/app/service/refund"
	"github.com/fatflowers/postback/internal/app/service/statistics"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
	metrics "github.com/fatflowers/postback/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware(), mw.SpanMiddleware())
	return r
}

func newPrometheus(log *zap.SugaredLogger, reg prometheus.Registerer, gatherer prometheus.Gatherer) *metrics.Prometheus {
	return metrics.NewPrometheus(metrics.NewPrometheusOptions{
		Registerer: reg,
		Gatherer:   gatherer,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		},
		Logger: log,
	})
}

type routeParams struct {
	fx.In

	Engine     *gin.Engine
	Log        *zap.SugaredLogger
	Config     *cfgpkg.Config
	DB         *gorm.DB
	Prometheus *metrics.Prometheus
	Postback   *postback.Handler
	Store      *commerce.Store
	Logs       *postback_log.Service
	Refunds    *refund.Requester
	Stats      *statistics.Service
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Config
	r.Use(p.Prometheus.HandlerFunc())

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, p.DB)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	handlers.RegisterLegacyPostbackRoute(pub, p.Postback, cfg.Postback.SignatureHeader, log)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterPostbackRoutes(apiV1, p.Postback, cfg.Postback.SignatureHeader, log)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminAuthMiddleware(cfg.Admin.JWTSecret, log))
	handlers.RegisterAdminRoutes(admin, &handlers.Admin{
		Payments:   p.Store,
		Logs:       p.Logs,
		Refunds:    p.Refunds,
		Reconciler: p.Postback,
		Stats:      p.Stats,
		Log:        log,
	})
}

func serve(lc fx.Lifecycle, log *zap.SugaredLogger, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "name", name, "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("%s server error: %v", name, err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server", "name", name)
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	serve(lc, log, "api", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), r)
}

func runMetricsServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, p *metrics.Prometheus) {
	if cfg.MetricsAddr == "" {
		return
	}
	serve(lc, log, "metrics", cfg.MetricsAddr, p.MetricsRouter())
}

var Module = fx.Options(
	fx.Provide(newEngine, newPrometheus),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
	fx.Invoke(runMetricsServer),
)
