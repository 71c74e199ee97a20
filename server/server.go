package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"iot-dashboard/auth"
	"iot-dashboard/cache"
	"iot-dashboard/confs"
	"iot-dashboard/events"
	"iot-dashboard/handlers"
	httpHandler "iot-dashboard/handlers/http"
	"iot-dashboard/logger"
	"iot-dashboard/repositories"
	"iot-dashboard/schemas"
	"iot-dashboard/services"
	"iot-dashboard/usecases"
	"iot-dashboard/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gorillaHandlers "github.com/gorilla/handlers"
)

type Server struct {
	app       *gin.Engine
	cfg       confs.Config
	repos     repositories.Set
	issuer    *auth.Issuer
	manager   *ws.Manager
	processor *services.DataProcessor
	publisher events.Publisher
	exporter  httpHandler.MeasureExporter
}

type Option func(*Server)

// WithPublisher adds a publisher notified of every stored measure, next to
// the live websocket feed.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithExporter enables POST /measures/export.
func WithExporter(e httpHandler.MeasureExporter) Option {
	return func(s *Server) { s.exporter = e }
}

func NewServer(cfg confs.Config, repos repositories.Set, opts ...Option) *Server {
	s := &Server{
		app:     gin.New(),
		cfg:     cfg,
		repos:   repos,
		manager: ws.NewManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.AuthEnabled() {
		s.issuer = auth.NewIssuer(cfg.AuthSecret, cfg.AuthTokenTTL, cfg.AdminUsername, cfg.AdminPasswordHash)
	}
	s.routes()
	return s
}

// Router exposes the engine, mostly for tests.
func (s *Server) Router() http.Handler { return s.app }

func (s *Server) routes() {
	s.app.Use(gin.Recovery(), logger.Middleware())

	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.ExposeHeaders = []string{logger.RequestIDHeader}
	s.app.Use(cors.New(config))

	s.app.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "IoT dashboard API"})
	})
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// Initialize use cases
	validator := schemas.MustNewValidator()
	publisher := events.Multi{s.manager}
	if s.publisher != nil {
		publisher = append(publisher, s.publisher)
	}
	strict := s.cfg.StrictReferences
	userUseCase := usecases.NewUserUseCase(s.repos.Users, validator)
	sensorUseCase := usecases.NewSensorUseCase(s.repos.Sensors, s.repos.Users, validator, strict)
	measureUseCase := usecases.NewMeasureUseCase(s.repos.Measures, s.repos.Sensors, validator, publisher, strict)
	viewUseCase := usecases.NewViewUseCase(s.repos)

	// Socket readings are buffered and flushed through the measure use case
	s.processor = services.NewDataProcessor(measureUseCase, cache.NewMeasureBuffer(s.cfg.IngestThreshold), s.cfg.IngestFlushInterval)

	// Initialize handlers
	userHandler := httpHandler.NewUserHandler(userUseCase)
	sensorHandler := httpHandler.NewSensorHandler(sensorUseCase)
	measureHandler := httpHandler.NewMeasureHandler(measureUseCase, s.exporter)
	viewHandler := httpHandler.NewViewHandler(viewUseCase)
	loginHandler := httpHandler.NewLoginHandler(s.issuer)
	wsHandler := handlers.NewWSHandler(s.manager, s.processor)
	cacheHandler := handlers.NewCacheHandler(s.processor)

	s.app.POST("/auth/login", loginHandler.Login)

	public := s.app.Group("")
	guarded := s.app.Group("", httpHandler.RequireToken(s.issuer))

	public.GET("/users", userHandler.GetAllUsers)
	public.GET("/users/:id", userHandler.GetUser)
	public.GET("/users/:id/sensors", viewHandler.UserSensors)
	guarded.POST("/users", userHandler.CreateUser)
	guarded.PUT("/users/:id", userHandler.UpdateUser)
	guarded.DELETE("/users/:id", userHandler.DeleteUser)

	public.GET("/sensors", sensorHandler.GetAllSensors)
	public.GET("/sensors/locations", viewHandler.SensorLocations)
	public.GET("/sensors/:id", sensorHandler.GetSensor)
	public.GET("/sensors/:id/measures", viewHandler.SensorMeasures)
	public.GET("/sensors/:id/stats", viewHandler.SensorStats)
	guarded.POST("/sensors", sensorHandler.CreateSensor)
	guarded.PUT("/sensors/:id", sensorHandler.UpdateSensor)
	guarded.DELETE("/sensors/:id", sensorHandler.DeleteSensor)

	public.GET("/measures", measureHandler.GetAllMeasures)
	public.GET("/measures/filter", measureHandler.FilterMeasures)
	public.GET("/measures/:id", measureHandler.GetMeasure)
	guarded.POST("/measures", measureHandler.CreateMeasure)
	guarded.POST("/measures/export", measureHandler.ExportMeasures)
	guarded.PUT("/measures/:id", measureHandler.UpdateMeasure)
	guarded.DELETE("/measures/:id", measureHandler.DeleteMeasure)

	public.GET("/dashboard/stats", viewHandler.Dashboard)
	public.GET("/dashboard/markers", viewHandler.Markers)

	// Socket ingest buffer
	public.GET("/ingest/stats", cacheHandler.GetCacheStats)
	public.GET("/ingest/data", cacheHandler.GetAllCachedData)
	public.GET("/ingest/sensors", wsHandler.GetConnectedSensors)
	guarded.POST("/ingest/flush", cacheHandler.ProcessCache)

	public.GET("/ws/live", wsHandler.HandleLiveWS)
	guarded.GET("/ws/sensors", wsHandler.HandleSensorWS)
}

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns only after the ingest buffer has been flushed.
func (s *Server) Start(ctx context.Context) error {
	// The processor stops after the HTTP server, so its last flush sees
	// every reading the server accepted.
	procCtx, stopProcessor := context.WithCancel(context.WithoutCancel(ctx))
	flushed := s.processor.Start(procCtx)
	defer func() {
		stopProcessor()
		<-flushed
	}()

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           gorillaHandlers.CompressHandler(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Default().Infof("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
