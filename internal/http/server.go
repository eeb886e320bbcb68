package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/dispatcher"
	"github.com/jmehdipour/unit-notifier/internal/entitlement"
	"github.com/jmehdipour/unit-notifier/internal/fleet"
	"github.com/jmehdipour/unit-notifier/internal/http/middleware"
	"github.com/jmehdipour/unit-notifier/internal/ledger"
	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/repository"
	"github.com/jmehdipour/unit-notifier/internal/resolver"
	"github.com/jmehdipour/unit-notifier/internal/service/notify"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

// Handlers is everything the routes need.
type Handlers struct {
	Notifier   Notifier
	APIClients repository.APIClientsRepository
	Deliveries repository.DeliveriesRepository
	RateLimit  middleware.RateLimitConfig
	Log        *zap.Logger
}

// NewServer wires repositories, the notify pipeline and the routes.
// publisher may be nil, in which case delivery events are not emitted.
func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client, publisher notify.DeliveryPublisher, lg *zap.Logger) (*Server, error) {
	// repos (MySQL)
	customersRepo := repository.NewCustomersRepository(mysqlDB)
	packagesRepo := repository.NewPackagesRepository(mysqlDB)
	clientsRepo := repository.NewAPIClientsRepository(mysqlDB)

	// repos (ClickHouse)
	deliveriesRepo := repository.NewDeliveriesRepository(clickhouseDB)

	// phone cache
	var cache resolver.Cache
	switch cfg.Cache.Backend {
	case "memory":
		cache = resolver.NewMemoryCache(cfg.Cache.PhoneTTL)
	default:
		if rds == nil {
			return nil, fmt.Errorf("cache.backend=redis needs a redis client")
		}
		cache = resolver.NewRedisCache(rds, cfg.Cache.PhoneTTL)
	}

	pool, err := dispatcher.NewPoolFromConfig(cfg, lg)
	if err != nil {
		return nil, err
	}

	precedence, err := ledger.ParsePrecedence(cfg.Quota.Precedence)
	if err != nil {
		return nil, err
	}

	deps := notify.Deps{
		Customers:  customersRepo,
		Gate:       entitlement.NewGate(packagesRepo),
		Fleet:      notify.FleetClient(fleet.NewClient(cfg.Fleet, lg)),
		Resolver:   resolver.New(cache, cfg.Fleet.Strict, lg),
		Dispatcher: dispatcher.NewEngine(pool, cfg.Dispatcher, lg),
		Ledger:     ledger.New(customersRepo, packagesRepo, precedence, lg),
		Publisher:  publisher,
		Log:        lg,
	}

	return NewServerWithHandlers(Handlers{
		Notifier:   notify.New(deps),
		APIClients: clientsRepo,
		Deliveries: deliveriesRepo,
		RateLimit: middleware.RateLimitConfig{
			Redis:          rds,
			DefaultRPS:     cfg.RateLimit.RPS,
			KeyPrefix:      "rl:client:",
			Window:         time.Second,
			RetryAfterHint: true,
		},
		Log: lg,
	}), nil
}

func NewServerWithHandlers(h Handlers) *Server {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(h.APIClients)
	rlMW := middleware.RateLimitMiddleware(h.RateLimit)

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.GET("/notify/:method", notifyHandler(h.Notifier))
	v1.POST("/notify/:method", notifyHandler(h.Notifier))
	v1.GET("/reports/deliveries", listDeliveriesHandler(h.Deliveries))

	return &Server{e: e, log: h.Log.Named("http")}
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
