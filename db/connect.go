package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iot-dashboard/confs"
	"iot-dashboard/entities"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the relational store selected by cfg.DBDriver and migrates it.
func Connect(cfg confs.Config) (*GormDatabase, error) {
	switch cfg.DBDriver {
	case confs.DriverPostgres:
		return ConnectPostgres(postgresDSN(cfg))
	case confs.DriverSQLite:
		return OpenSQLite(cfg.DBURI)
	default:
		return nil, fmt.Errorf("driver %q is not a gorm driver", cfg.DBDriver)
	}
}

func postgresDSN(cfg confs.Config) string {
	if cfg.DBURI != "" {
		dsn := cfg.DBURI
		// hosted databases expect TLS unless told otherwise
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		logrus.Info("connecting to postgres using DB_URI")
		return dsn
	}

	sslMode := "require"
	if cfg.DBHost == "localhost" || cfg.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	logrus.Infof("connecting to postgres using individual parameters (sslmode=%s)", sslMode)
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode)
}

// ConnectPostgres opens a postgres pool and migrates the schema.
func ConnectPostgres(dsn string) (*GormDatabase, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(0)

	return migrated(gdb)
}

// OpenSQLite opens a sqlite database, e.g. "file:iot.db" or
// "file:test?mode=memory&cache=shared", and migrates the schema.
func OpenSQLite(dsn string) (*GormDatabase, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// sqlite serialises writers anyway
	sqlDB.SetMaxOpenConns(1)

	return migrated(gdb)
}

func migrated(gdb *gorm.DB) (*GormDatabase, error) {
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	logrus.Info("database connection established and migrated")
	return &GormDatabase{DB: gdb}, nil
}

// Migrate creates or updates the tables of the three resources.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&entities.User{}, &entities.Sensor{}, &entities.Measure{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ConnectMongo connects to MongoDB, verifies the connection and ensures the
// indexes used by the foreign key lookups and the measures filter.
func ConnectMongo(ctx context.Context, uri, name string) (*MongoDatabase, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	mdb := &MongoDatabase{Client: client, DB: client.Database(name)}

	indexes := map[string][]mongo.IndexModel{
		SensorsCollection: {{Keys: bson.D{{Key: "userId", Value: 1}}}},
		MeasuresCollection: {
			{Keys: bson.D{{Key: "sensorID", Value: 1}}},
			{Keys: bson.D{{Key: "creationDate", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := mdb.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}

	logrus.Infof("connected to mongo database %q", name)
	return mdb, nil
}
