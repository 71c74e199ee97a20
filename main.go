package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iot-dashboard/confs"
	"iot-dashboard/db"
	"iot-dashboard/events"
	"iot-dashboard/exports"
	"iot-dashboard/logger"
	"iot-dashboard/repositories"
	"iot-dashboard/server"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.InitLogger(level)
	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// connect to the store
	var repos repositories.Set
	switch cfg.DBDriver {
	case confs.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		database, err := db.ConnectMongo(connectCtx, cfg.DBURI, cfg.DBName)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() { _ = database.Close(context.Background()) }()
		repos = repositories.NewMongoSet(database)
	default:
		database, err := db.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer func() { _ = database.Close() }()
		repos = repositories.NewGormSet(database)
	}

	var opts []server.Option
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafka := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer func() { _ = kafka.Close() }()
		opts = append(opts, server.WithPublisher(kafka))
	}
	if cfg.S3Bucket != "" {
		exporter, err := exports.NewS3Exporter(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			log.Fatalf("Failed to set up S3 export: %v", err)
		}
		opts = append(opts, server.WithExporter(exporter))
	}
	if !cfg.AuthEnabled() {
		log.Warn("AUTH_SECRET not set, mutating routes are open")
	}

	// run server
	if err := server.NewServer(cfg, repos, opts...).Start(ctx); err != nil {
		log.Errorf("server stopped: %v", err)
		return
	}
	log.Info("server stopped")
}
