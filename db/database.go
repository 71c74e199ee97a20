package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

type Database interface {
	GetDB() *gorm.DB
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

// Close releases the underlying connection pool.
func (g *GormDatabase) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MongoDatabase is a connected client bound to one database.
type MongoDatabase struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Collection names shared by every store driver.
const (
	UsersCollection    = "users"
	SensorsCollection  = "sensors"
	MeasuresCollection = "measures"
)

func (m *MongoDatabase) Collection(name string) *mongo.Collection { return m.DB.Collection(name) }

func (m *MongoDatabase) Close(ctx context.Context) error { return m.Client.Disconnect(ctx) }
