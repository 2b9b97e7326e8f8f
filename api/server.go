package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlforge/modelops/api/handlers"
	"github.com/mlforge/modelops/api/middleware"
	"github.com/mlforge/modelops/api/websocket"
	"github.com/mlforge/modelops/internal/abtest"
	"github.com/mlforge/modelops/internal/auth"
	"github.com/mlforge/modelops/internal/metrics"
	"github.com/mlforge/modelops/internal/registry"
	"github.com/mlforge/modelops/internal/watchdog"
	"github.com/mlforge/modelops/pkg/config"
	"github.com/mlforge/modelops/pkg/database"
	"github.com/mlforge/modelops/pkg/database/queries"
)

// Deps are the wired components the server exposes over HTTP.
type Deps struct {
	Registry    *registry.Registry
	Watchdog    *watchdog.Watchdog
	ABTests     *abtest.Framework
	FeedFactory func(modelName string) watchdog.PredictionFeed
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	wsConfig    config.WebSocketConfig
	db          *database.DB
	deps        Deps
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, db *database.DB, deps Deps) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTDuration)
	wsHub := websocket.NewHub(&wsCfg)

	s := &Server{
		router:      router,
		config:      cfg,
		wsConfig:    wsCfg,
		db:          db,
		deps:        deps,
		authService: authService,
		wsHub:       wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// Start WebSocket hub
	go wsHub.Run()

	// Forward watchdog events to WebSocket clients
	if deps.Watchdog != nil {
		eventsChan := deps.Watchdog.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, eventsChan)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) setupRoutes() {
	var userRepo *queries.UserRepository
	var perfRepo *queries.PerformanceRepository
	if s.db != nil {
		userRepo = queries.NewUserRepository(s.db.DB)
		perfRepo = queries.NewPerformanceRepository(s.db.DB)
	}

	wd := s.deps.Watchdog

	healthHandler := handlers.NewHealthHandler(s.db)
	authHandler := handlers.NewAuthHandler(userRepo, s.authService)
	modelHandler := handlers.NewModelHandler(s.deps.Registry, wd, s.deps.FeedFactory)
	monitoringHandler := handlers.NewMonitoringHandler(
		wd.Detector(), wd.Monitor(), wd.Scorer(), perfRepo, 0)
	alertHandler := handlers.NewAlertHandler(wd.AlertManager())
	abtestHandler := handlers.NewABTestHandler(s.deps.ABTests)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)
	s.router.GET("/metrics", gin.WrapH(metrics.Get().Handler()))

	// Auth routes
	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		// Model registry
		protected.POST("/models", modelHandler.Register)
		protected.GET("/models/:name/versions", modelHandler.List)
		protected.GET("/models/:name/versions/:version", modelHandler.Get)
		protected.GET("/models/:name/versions/:version/artifact", modelHandler.Download)
		protected.GET("/models/:name/active", modelHandler.GetActive)
		protected.POST("/models/:name/versions/:version/activate", modelHandler.Activate)

		// Watchdog
		protected.GET("/models/watched", modelHandler.Watched)
		protected.POST("/models/:name/watch", modelHandler.Watch)
		protected.DELETE("/models/:name/watch", modelHandler.Unwatch)

		// Drift
		protected.POST("/models/:name/reference", monitoringHandler.SetReference)
		protected.POST("/models/:name/drift/data", monitoringHandler.CheckDataDrift)
		protected.POST("/models/:name/drift/concept", monitoringHandler.CheckConceptDrift)

		// Performance
		protected.POST("/models/:name/baseline", monitoringHandler.SetBaseline)
		protected.POST("/models/:name/performance", monitoringHandler.RecordPerformance)
		protected.GET("/models/:name/performance", monitoringHandler.GetHistory)
		protected.GET("/models/:name/degradation", monitoringHandler.CheckDegradation)

		// Health scoring
		protected.POST("/models/:name/healthscore", monitoringHandler.ScoreHealth)
		protected.GET("/models/:name/healthscore", monitoringHandler.LatestHealth)

		// Alerts
		protected.POST("/alerts", alertHandler.Create)
		protected.GET("/alerts", alertHandler.Active)
		protected.POST("/alerts/:id/resolve", alertHandler.Resolve)

		// A/B tests
		protected.POST("/abtests", abtestHandler.Create)
		protected.GET("/abtests/:id", abtestHandler.Get)
		protected.GET("/abtests/:id/assignment", abtestHandler.Assign)
		protected.POST("/abtests/:id/outcomes", abtestHandler.RecordOutcome)
		protected.GET("/abtests/:id/results", abtestHandler.Results)
		protected.POST("/abtests/:id/complete", abtestHandler.Complete)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event bridge first
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
