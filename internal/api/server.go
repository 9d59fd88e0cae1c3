package api

import (
	"context"
	"fmt"
	"net/http"

	"expohall/internal/cache"
	"expohall/internal/config"
	"expohall/internal/database"
	"expohall/internal/handlers"
	"expohall/internal/logger"
	"expohall/internal/messaging"
	"expohall/internal/metrics"
	"expohall/internal/middleware"
	"expohall/internal/repository"
	"expohall/internal/search"
	"expohall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server owns the HTTP surface and the infrastructure clients behind it.
type Server struct {
	cfg        *config.Config
	db         *database.DB
	nats       *messaging.NATSClient
	valkey     *cache.ValkeyClient
	httpServer *http.Server
}

// New connects the infrastructure, runs migrations and wires the routes.
// Valkey and Elasticsearch are optional: a failed connection degrades
// the respective feature instead of refusing to start.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	nats, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	valkey, err := cache.NewValkeyClient()
	if err != nil {
		logger.Get().Warn("Valkey unavailable, caching disabled", "error", err)
		valkey = nil
	}

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Get().Warn("Elasticsearch unavailable, search disabled", "error", err)
		es = nil
	}

	repos := repository.NewRepositories(db)
	m := metrics.New()
	services := service.NewServices(repos, nats, valkey, es, m)
	h := handlers.New(services)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery(), middleware.CORS())

	registerRoutes(router, h, repos, valkey)

	return &Server{
		cfg:    cfg,
		db:     db,
		nats:   nats,
		valkey: valkey,
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
		},
	}, nil
}

func registerRoutes(router *gin.Engine, h *handlers.Handlers, repos *repository.Repositories, valkey *cache.ValkeyClient) {
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/payments", h.PaymentNotification)

	public := router.Group("/api")
	{
		public.GET("/events", h.ListEvents)
		public.GET("/events/:id", h.GetEvent)
		public.GET("/events/:id/plans", h.ListPlans)
		public.GET("/events/:id/stands/available", h.ListAvailableStands)
		public.GET("/events/:id/equipment", h.ListEquipmentAvailability)
		public.GET("/plans/:id/stands", h.ListPlanStands)
	}

	authed := router.Group("/api")
	authed.Use(middleware.BasicAuth(repos.Users, valkey))
	{
		authed.POST("/events", h.CreateEvent)
		authed.POST("/events/:id/publish", h.PublishEvent)
		authed.POST("/events/:id/close", h.CloseEvent)
		authed.DELETE("/events/:id/equipment/:equipmentId", h.DissociateEquipment)

		authed.POST("/plans", h.CreatePlan)
		authed.POST("/stands", h.CreateStand)
		authed.POST("/stands/:id/reserve", h.ReserveStand)
		authed.POST("/stands/:id/free", h.FreeStand)

		authed.POST("/equipment", h.CreateEquipment)
		authed.POST("/equipment/associate", h.AssociateEquipment)

		authed.POST("/registrations", h.CreateRegistration)
		authed.GET("/registrations", h.ListRegistrations)
		authed.GET("/registrations/:id", h.GetRegistration)
		authed.DELETE("/registrations/:id", h.RemoveRegistration)
		authed.POST("/registrations/review", h.ReviewRegistration)
		authed.POST("/registrations/stands", h.SelectStands)
		authed.POST("/registrations/equipment", h.SelectEquipment)
		authed.POST("/registrations/cancel", h.CancelRegistration)
		authed.GET("/registrations/:id/invoice", h.GetRegistrationInvoice)
		authed.POST("/registrations/:id/invoice", h.GenerateInvoice)
		authed.GET("/invoices/:id", h.GetInvoice)
	}
}

// Run starts serving; blocks until the listener fails or Shutdown runs.
func (s *Server) Run() error {
	logger.Get().Info("Starting HTTP server", "port", s.cfg.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the infrastructure clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	if s.valkey != nil {
		if cerr := s.valkey.Close(); cerr != nil {
			logger.Get().Error("Failed to close Valkey client", "error", cerr)
		}
	}
	if cerr := s.nats.Close(); cerr != nil {
		logger.Get().Error("Failed to close NATS client", "error", cerr)
	}
	if cerr := s.db.Close(); cerr != nil {
		logger.Get().Error("Failed to close database", "error", cerr)
	}

	return err
}
