package repositories

import (
	"context"
	"errors"

	"iot-dashboard/entities"
)

var (
	// ErrNotFound is returned when no document has the given id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned when an id is not well formed for the store.
	ErrInvalidID = errors.New("malformed document id")
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetAll(ctx context.Context) ([]entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id string) (*entities.User, error)
	Count(ctx context.Context) (int64, error)
}

type SensorRepository interface {
	Create(ctx context.Context, sensor *entities.Sensor) error
	GetByID(ctx context.Context, id string) (*entities.Sensor, error)
	GetAll(ctx context.Context) ([]entities.Sensor, error)
	GetByUserID(ctx context.Context, userID string) ([]entities.Sensor, error)
	Update(ctx context.Context, sensor *entities.Sensor) error
	Delete(ctx context.Context, id string) (*entities.Sensor, error)
	Count(ctx context.Context) (int64, error)
}

type MeasureRepository interface {
	Create(ctx context.Context, measure *entities.Measure) error
	CreateBatch(ctx context.Context, measures []entities.Measure) error
	GetByID(ctx context.Context, id string) (*entities.Measure, error)
	GetAll(ctx context.Context) ([]entities.Measure, error)
	Find(ctx context.Context, filter entities.MeasureFilter) ([]entities.Measure, error)
	Update(ctx context.Context, measure *entities.Measure) error
	Delete(ctx context.Context, id string) (*entities.Measure, error)
	Count(ctx context.Context) (int64, error)
}

// Set bundles the repositories of one store.
type Set struct {
	Users    UserRepository
	Sensors  SensorRepository
	Measures MeasureRepository
}
