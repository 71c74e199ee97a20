package repositories

import (
	"context"
	"errors"

	"iot-dashboard/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewGormSet returns repositories backed by a gorm database.
func NewGormSet(database db.Database) Set {
	return Set{
		Users:    NewUserPgRepository(database),
		Sensors:  NewSensorPgRepository(database),
		Measures: NewMeasurePgRepository(database),
	}
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func gormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// first loads the row with the given primary key into dest.
func first(ctx context.Context, database db.Database, dest any, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	return gormErr(database.GetDB().WithContext(ctx).Where("id = ?", id).First(dest).Error)
}

// save updates an existing row, reporting ErrNotFound if it vanished.
func save(ctx context.Context, database db.Database, model any, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	res := database.GetDB().WithContext(ctx).Model(model).Select("*").Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// remove deletes the row with the given id and loads its last state into dest.
func remove(ctx context.Context, database db.Database, dest any, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	return database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(dest).Error; err != nil {
			return gormErr(err)
		}
		res := tx.Where("id = ?", id).Delete(dest)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
