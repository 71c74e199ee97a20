package usecases

import (
	"context"
	"errors"
	"strings"

	"iot-dashboard/entities"
	"iot-dashboard/logger"
	"iot-dashboard/repositories"
	"iot-dashboard/schemas"
)

type SensorUseCase struct {
	Sensors   repositories.SensorRepository
	Users     repositories.UserRepository
	validator *schemas.Validator
	// strict makes writes check that the referenced user exists.
	strict bool
}

func NewSensorUseCase(sensors repositories.SensorRepository, users repositories.UserRepository, validator *schemas.Validator, strict bool) *SensorUseCase {
	return &SensorUseCase{Sensors: sensors, Users: users, validator: validator, strict: strict}
}

func validateSensor(s *entities.Sensor) error {
	v := &ValidationError{}
	if strings.TrimSpace(s.Type) == "" {
		v.add("type", "type is required")
	}
	if strings.TrimSpace(s.Model) == "" {
		v.add("model", "model is required")
	}
	if strings.TrimSpace(s.Location) == "" {
		v.add("location", "location is required")
	}
	if strings.TrimSpace(s.UserID) == "" {
		v.add("userId", "userId is required")
	}
	return v.orNil()
}

func (uc *SensorUseCase) checkOwner(ctx context.Context, userID string) error {
	if !uc.strict {
		return nil
	}
	_, err := uc.Users.GetByID(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrInvalidID):
		return invalid("userId", "user does not exist")
	}
	return translate("check sensor owner", err)
}

func (uc *SensorUseCase) List(ctx context.Context) ([]entities.Sensor, error) {
	sensors, err := uc.Sensors.GetAll(ctx)
	return sensors, translate("list sensors", err)
}

// ListByUser returns the sensors whose userId equals userID.
func (uc *SensorUseCase) ListByUser(ctx context.Context, userID string) ([]entities.Sensor, error) {
	sensors, err := uc.Sensors.GetByUserID(ctx, userID)
	return sensors, translate("list sensors by user", err)
}

func (uc *SensorUseCase) Get(ctx context.Context, id string) (*entities.Sensor, error) {
	sensor, err := uc.Sensors.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get sensor", err)
	}
	return sensor, nil
}

func (uc *SensorUseCase) Create(ctx context.Context, sensor *entities.Sensor) error {
	if err := validateSensor(sensor); err != nil {
		return err
	}
	if err := uc.checkOwner(ctx, sensor.UserID); err != nil {
		return err
	}
	sensor.ID = ""
	if err := uc.Sensors.Create(ctx, sensor); err != nil {
		return translate("create sensor", err)
	}
	logger.FromContext(ctx).WithField("sensorID", sensor.ID).Info("sensor created")
	return nil
}

func (uc *SensorUseCase) CreateJSON(ctx context.Context, body []byte) (*entities.Sensor, error) {
	var in entities.SensorPatch
	if err := uc.validator.Decode(schemas.Sensors, schemas.Create, body, &in); err != nil {
		return nil, fromSchema(err)
	}
	sensor := &entities.Sensor{}
	in.Apply(sensor)
	if err := uc.Create(ctx, sensor); err != nil {
		return nil, err
	}
	return sensor, nil
}

func (uc *SensorUseCase) Update(ctx context.Context, id string, patch entities.SensorPatch) (*entities.Sensor, error) {
	existing, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(existing)
	if err := validateSensor(existing); err != nil {
		return nil, err
	}
	if patch.UserID != nil {
		if err := uc.checkOwner(ctx, existing.UserID); err != nil {
			return nil, err
		}
	}
	if err := uc.Sensors.Update(ctx, existing); err != nil {
		return nil, translate("update sensor", err)
	}
	return existing, nil
}

func (uc *SensorUseCase) UpdateJSON(ctx context.Context, id string, body []byte) (*entities.Sensor, error) {
	var patch entities.SensorPatch
	if err := uc.validator.Decode(schemas.Sensors, schemas.Patch, body, &patch); err != nil {
		return nil, fromSchema(err)
	}
	return uc.Update(ctx, id, patch)
}

// Delete removes a sensor; its measures keep their sensorID.
func (uc *SensorUseCase) Delete(ctx context.Context, id string) (*entities.Sensor, error) {
	sensor, err := uc.Sensors.Delete(ctx, id)
	if err != nil {
		return nil, translate("delete sensor", err)
	}
	logger.FromContext(ctx).WithField("sensorID", id).Info("sensor deleted")
	return sensor, nil
}

func (uc *SensorUseCase) Count(ctx context.Context) (int64, error) {
	n, err := uc.Sensors.Count(ctx)
	return n, translate("count sensors", err)
}
