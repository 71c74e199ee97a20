package usecases

import (
	"context"
	"time"

	"iot-dashboard/entities"
	"iot-dashboard/joins"
	"iot-dashboard/logger"
	"iot-dashboard/repositories"

	"golang.org/x/sync/errgroup"
)

// ViewUseCase serves the composed dashboard views. Reads are not isolated
// from each other: a write landing between two of them shows up in one
// half of the view only.
type ViewUseCase struct {
	repos repositories.Set
	now   func() time.Time
}

func NewViewUseCase(repos repositories.Set) *ViewUseCase {
	return &ViewUseCase{repos: repos, now: time.Now}
}

func (uc *ViewUseCase) usersAndSensors(ctx context.Context) ([]entities.User, []entities.Sensor, error) {
	var (
		users   []entities.User
		sensors []entities.Sensor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = uc.repos.Users.GetAll(gctx)
		return translate("list users", err)
	})
	g.Go(func() (err error) {
		sensors, err = uc.repos.Sensors.GetAll(gctx)
		return translate("list sensors", err)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return users, sensors, nil
}

// SensorLocations joins every sensor with its owner. Failing to read the
// users is not fatal: the sensors come back with null owner fields.
func (uc *ViewUseCase) SensorLocations(ctx context.Context) ([]joins.SensorLocation, error) {
	var (
		users   []entities.User
		sensors []entities.Sensor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := uc.repos.Users.GetAll(gctx)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Warn("listing users failed, sensors returned without owner fields")
			return nil
		}
		users = list
		return nil
	})
	g.Go(func() (err error) {
		sensors, err = uc.repos.Sensors.GetAll(gctx)
		return translate("list sensors", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return joins.SensorLocations(users, sensors), nil
}

func (uc *ViewUseCase) UserWithSensors(ctx context.Context, userID string) (*joins.UserSensors, error) {
	user, err := uc.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate("get user", err)
	}
	sensors, err := uc.repos.Sensors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, translate("list sensors by user", err)
	}
	view := joins.UserWithSensors(*user, sensors)
	return &view, nil
}

func (uc *ViewUseCase) sensorMeasures(ctx context.Context, sensorID string) (*entities.Sensor, []entities.Measure, error) {
	sensor, err := uc.repos.Sensors.GetByID(ctx, sensorID)
	if err != nil {
		return nil, nil, translate("get sensor", err)
	}
	measures, err := uc.repos.Measures.Find(ctx, entities.MeasureFilter{SensorID: &sensorID})
	if err != nil {
		return nil, nil, translate("list measures by sensor", err)
	}
	return sensor, measures, nil
}

func (uc *ViewUseCase) SensorWithMeasures(ctx context.Context, sensorID string) (*joins.SensorMeasures, error) {
	sensor, measures, err := uc.sensorMeasures(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	view := joins.SensorWithMeasures(*sensor, measures)
	return &view, nil
}

func (uc *ViewUseCase) SensorStats(ctx context.Context, sensorID string) (*joins.Stats, error) {
	_, measures, err := uc.sensorMeasures(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	st := joins.SensorStats(measures)
	return &st, nil
}

func (uc *ViewUseCase) Dashboard(ctx context.Context) (*joins.Dashboard, error) {
	var measures []entities.Measure
	g, gctx := errgroup.WithContext(ctx)
	var (
		users   []entities.User
		sensors []entities.Sensor
	)
	g.Go(func() (err error) {
		users, sensors, err = uc.usersAndSensors(gctx)
		return err
	})
	g.Go(func() (err error) {
		measures, err = uc.repos.Measures.GetAll(gctx)
		return translate("list measures", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d := joins.DashboardStats(users, sensors, measures, uc.now().UTC())
	return &d, nil
}

func (uc *ViewUseCase) Markers(ctx context.Context) ([]joins.Marker, error) {
	users, err := uc.repos.Users.GetAll(ctx)
	if err != nil {
		return nil, translate("list users", err)
	}
	return joins.MapMarkers(users), nil
}
