package repositories

import (
	"context"

	"iot-dashboard/db"
	"iot-dashboard/entities"

	"gorm.io/gorm"
)

type measurePgRepository struct {
	db db.Database
}

func NewMeasurePgRepository(database db.Database) MeasureRepository {
	return &measurePgRepository{db: database}
}

func (r *measurePgRepository) Create(ctx context.Context, measure *entities.Measure) error {
	return r.db.GetDB().WithContext(ctx).Create(measure).Error
}

func (r *measurePgRepository) CreateBatch(ctx context.Context, measures []entities.Measure) error {
	if len(measures) == 0 {
		return nil
	}
	return r.db.GetDB().WithContext(ctx).CreateInBatches(&measures, 200).Error
}

func (r *measurePgRepository) GetByID(ctx context.Context, id string) (*entities.Measure, error) {
	var measure entities.Measure
	if err := first(ctx, r.db, &measure, id); err != nil {
		return nil, err
	}
	return &measure, nil
}

func (r *measurePgRepository) GetAll(ctx context.Context) ([]entities.Measure, error) {
	measures := []entities.Measure{}
	err := r.db.GetDB().WithContext(ctx).Order("creation_date ASC").Find(&measures).Error
	return measures, err
}

func (r *measurePgRepository) Find(ctx context.Context, filter entities.MeasureFilter) ([]entities.Measure, error) {
	measures := []entities.Measure{}
	err := applyMeasureFilter(r.db.GetDB().WithContext(ctx), filter).
		Order("creation_date ASC").
		Find(&measures).Error
	return measures, err
}

func applyMeasureFilter(q *gorm.DB, f entities.MeasureFilter) *gorm.DB {
	if f.Type != nil {
		q = q.Where("type = ?", string(*f.Type))
	}
	if f.SensorID != nil {
		q = q.Where("sensor_id = ?", *f.SensorID)
	}
	if f.StartDate != nil {
		q = q.Where("creation_date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("creation_date <= ?", f.EndDate.UTC())
	}
	if f.MinValue != nil {
		q = q.Where("value >= ?", *f.MinValue)
	}
	if f.MaxValue != nil {
		q = q.Where("value <= ?", *f.MaxValue)
	}
	return q
}

func (r *measurePgRepository) Update(ctx context.Context, measure *entities.Measure) error {
	return save(ctx, r.db, measure, measure.ID)
}

func (r *measurePgRepository) Delete(ctx context.Context, id string) (*entities.Measure, error) {
	var measure entities.Measure
	if err := remove(ctx, r.db, &measure, id); err != nil {
		return nil, err
	}
	return &measure, nil
}

func (r *measurePgRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Measure{}).Count(&n).Error
	return n, err
}
