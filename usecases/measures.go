package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"iot-dashboard/entities"
	"iot-dashboard/events"
	"iot-dashboard/logger"
	"iot-dashboard/repositories"
	"iot-dashboard/schemas"
)

type MeasureUseCase struct {
	Measures  repositories.MeasureRepository
	Sensors   repositories.SensorRepository
	validator *schemas.Validator
	publisher events.Publisher
	strict    bool
}

func NewMeasureUseCase(measures repositories.MeasureRepository, sensors repositories.SensorRepository, validator *schemas.Validator, publisher events.Publisher, strict bool) *MeasureUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &MeasureUseCase{
		Measures:  measures,
		Sensors:   sensors,
		validator: validator,
		publisher: publisher,
		strict:    strict,
	}
}

func validateMeasure(m *entities.Measure, prefix string) *ValidationError {
	v := &ValidationError{}
	if !m.Type.Valid() {
		v.add(prefix+"type", "must be one of humidity, temperature, airPollution")
	}
	if m.CreationDate.IsZero() {
		v.add(prefix+"creationDate", "creationDate is required")
	}
	if strings.TrimSpace(m.SensorID) == "" {
		v.add(prefix+"sensorID", "sensorID is required")
	}
	return v
}

func (uc *MeasureUseCase) checkSensor(ctx context.Context, sensorID, field string) error {
	if !uc.strict {
		return nil
	}
	_, err := uc.Sensors.GetByID(ctx, sensorID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrInvalidID):
		return invalid(field, "sensor does not exist")
	}
	return translate("check measure sensor", err)
}

// publish never fails the write that triggered it.
func (uc *MeasureUseCase) publish(ctx context.Context, m entities.Measure) {
	if err := uc.publisher.PublishMeasure(ctx, m); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("measureID", m.ID).Warn("publishing measure failed")
	}
}

func (uc *MeasureUseCase) List(ctx context.Context) ([]entities.Measure, error) {
	measures, err := uc.Measures.GetAll(ctx)
	return measures, translate("list measures", err)
}

// Filter returns the measures matching every criterion set in f. An empty
// filter returns all measures.
func (uc *MeasureUseCase) Filter(ctx context.Context, f entities.MeasureFilter) ([]entities.Measure, error) {
	measures, err := uc.Measures.Find(ctx, f)
	return measures, translate("filter measures", err)
}

// FilterParams parses raw query parameters and runs Filter.
func (uc *MeasureUseCase) FilterParams(ctx context.Context, p MeasureFilterParams) ([]entities.Measure, error) {
	f, err := ParseMeasureFilter(p)
	if err != nil {
		return nil, err
	}
	return uc.Filter(ctx, f)
}

// ListBySensor returns the measures taken by one sensor.
func (uc *MeasureUseCase) ListBySensor(ctx context.Context, sensorID string) ([]entities.Measure, error) {
	return uc.Filter(ctx, entities.MeasureFilter{SensorID: &sensorID})
}

func (uc *MeasureUseCase) Get(ctx context.Context, id string) (*entities.Measure, error) {
	measure, err := uc.Measures.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get measure", err)
	}
	return measure, nil
}

func (uc *MeasureUseCase) Create(ctx context.Context, measure *entities.Measure) error {
	if err := validateMeasure(measure, "").orNil(); err != nil {
		return err
	}
	if err := uc.checkSensor(ctx, measure.SensorID, "sensorID"); err != nil {
		return err
	}
	measure.ID = ""
	measure.CreationDate = measure.CreationDate.UTC()
	if err := uc.Measures.Create(ctx, measure); err != nil {
		return translate("create measure", err)
	}
	uc.publish(ctx, *measure)
	return nil
}

func (uc *MeasureUseCase) CreateJSON(ctx context.Context, body []byte) (*entities.Measure, error) {
	var in entities.MeasurePatch
	if err := uc.validator.Decode(schemas.Measures, schemas.Create, body, &in); err != nil {
		return nil, fromSchema(err)
	}
	measure := &entities.Measure{}
	in.Apply(measure)
	if err := uc.Create(ctx, measure); err != nil {
		return nil, err
	}
	return measure, nil
}

// CreateBatch stores several measures at once. Either all of them are
// valid and stored, or none is.
func (uc *MeasureUseCase) CreateBatch(ctx context.Context, measures []entities.Measure) (int, error) {
	if len(measures) == 0 {
		return 0, nil
	}
	v := &ValidationError{}
	for i := range measures {
		prefix := fmt.Sprintf("measures[%d].", i)
		for f, msg := range validateMeasure(&measures[i], prefix).FieldErrors {
			v.add(f, msg)
		}
	}
	if err := v.orNil(); err != nil {
		return 0, err
	}
	checked := make(map[string]bool)
	for i, m := range measures {
		if checked[m.SensorID] {
			continue
		}
		if err := uc.checkSensor(ctx, m.SensorID, fmt.Sprintf("measures[%d].sensorID", i)); err != nil {
			return 0, err
		}
		checked[m.SensorID] = true
	}
	for i := range measures {
		measures[i].ID = ""
		measures[i].CreationDate = measures[i].CreationDate.UTC()
	}
	if err := uc.Measures.CreateBatch(ctx, measures); err != nil {
		return 0, translate("create measures", err)
	}
	if err := events.PublishAll(ctx, uc.publisher, measures); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("count", len(measures)).Warn("publishing measures failed")
	}
	logger.FromContext(ctx).WithField("count", len(measures)).Info("measures stored")
	return len(measures), nil
}

func (uc *MeasureUseCase) Update(ctx context.Context, id string, patch entities.MeasurePatch) (*entities.Measure, error) {
	existing, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(existing)
	if err := validateMeasure(existing, "").orNil(); err != nil {
		return nil, err
	}
	if patch.SensorID != nil {
		if err := uc.checkSensor(ctx, existing.SensorID, "sensorID"); err != nil {
			return nil, err
		}
	}
	if err := uc.Measures.Update(ctx, existing); err != nil {
		return nil, translate("update measure", err)
	}
	return existing, nil
}

func (uc *MeasureUseCase) UpdateJSON(ctx context.Context, id string, body []byte) (*entities.Measure, error) {
	var patch entities.MeasurePatch
	if err := uc.validator.Decode(schemas.Measures, schemas.Patch, body, &patch); err != nil {
		return nil, fromSchema(err)
	}
	return uc.Update(ctx, id, patch)
}

func (uc *MeasureUseCase) Delete(ctx context.Context, id string) (*entities.Measure, error) {
	measure, err := uc.Measures.Delete(ctx, id)
	if err != nil {
		return nil, translate("delete measure", err)
	}
	logger.FromContext(ctx).WithField("measureID", id).Info("measure deleted")
	return measure, nil
}

func (uc *MeasureUseCase) Count(ctx context.Context) (int64, error) {
	n, err := uc.Measures.Count(ctx)
	return n, translate("count measures", err)
}
