package repositories

import (
	"context"

	"iot-dashboard/db"
	"iot-dashboard/entities"
)

type sensorPgRepository struct {
	db db.Database
}

func NewSensorPgRepository(database db.Database) SensorRepository {
	return &sensorPgRepository{db: database}
}

func (r *sensorPgRepository) Create(ctx context.Context, sensor *entities.Sensor) error {
	return r.db.GetDB().WithContext(ctx).Create(sensor).Error
}

func (r *sensorPgRepository) GetByID(ctx context.Context, id string) (*entities.Sensor, error) {
	var sensor entities.Sensor
	if err := first(ctx, r.db, &sensor, id); err != nil {
		return nil, err
	}
	return &sensor, nil
}

func (r *sensorPgRepository) GetAll(ctx context.Context) ([]entities.Sensor, error) {
	sensors := []entities.Sensor{}
	err := r.db.GetDB().WithContext(ctx).Find(&sensors).Error
	return sensors, err
}

func (r *sensorPgRepository) GetByUserID(ctx context.Context, userID string) ([]entities.Sensor, error) {
	sensors := []entities.Sensor{}
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Find(&sensors).Error
	return sensors, err
}

func (r *sensorPgRepository) Update(ctx context.Context, sensor *entities.Sensor) error {
	return save(ctx, r.db, sensor, sensor.ID)
}

func (r *sensorPgRepository) Delete(ctx context.Context, id string) (*entities.Sensor, error) {
	var sensor entities.Sensor
	if err := remove(ctx, r.db, &sensor, id); err != nil {
		return nil, err
	}
	return &sensor, nil
}

func (r *sensorPgRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Sensor{}).Count(&n).Error
	return n, err
}
