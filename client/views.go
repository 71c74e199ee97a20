package client

import (
	"context"

	"iot-dashboard/entities"
	"iot-dashboard/joins"
	"iot-dashboard/logger"

	"golang.org/x/sync/errgroup"
)

// SensorLocations fetches users and sensors concurrently and joins them.
// Sensors whose owner is missing keep null owner fields. A failed user read
// only loses the enrichment: every sensor is still returned.
func (c *Client) SensorLocations(ctx context.Context) ([]joins.SensorLocation, error) {
	var (
		users   []entities.User
		sensors []entities.Sensor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := c.ListUsers(gctx)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Warn("listing users failed, sensors returned without owner fields")
			return nil
		}
		users = list
		return nil
	})
	g.Go(func() (err error) {
		sensors, err = c.ListSensors(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return joins.SensorLocations(users, sensors), nil
}

func (c *Client) UserWithSensors(ctx context.Context, userID string) (*joins.UserSensors, error) {
	var (
		user    *entities.User
		sensors []entities.Sensor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = c.GetUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		sensors, err = c.ListSensors(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	view := joins.UserWithSensors(*user, sensors)
	return &view, nil
}

// SensorWithMeasures reads the sensor first and only then its measures.
func (c *Client) SensorWithMeasures(ctx context.Context, sensorID string) (*joins.SensorMeasures, error) {
	sensor, err := c.GetSensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	measures, err := c.ListMeasures(ctx, entities.MeasureFilter{SensorID: &sensor.ID})
	if err != nil {
		return nil, err
	}
	view := joins.SensorWithMeasures(*sensor, measures)
	return &view, nil
}

func (c *Client) SensorStats(ctx context.Context, sensorID string) (*joins.Stats, error) {
	view, err := c.SensorWithMeasures(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	st := joins.SensorStats(view.Measures)
	return &st, nil
}

// Dashboard fetches the three collections concurrently.
func (c *Client) Dashboard(ctx context.Context) (*joins.Dashboard, error) {
	var (
		users    []entities.User
		sensors  []entities.Sensor
		measures []entities.Measure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = c.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		sensors, err = c.ListSensors(gctx)
		return err
	})
	g.Go(func() (err error) {
		measures, err = c.ListMeasures(gctx, entities.MeasureFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d := joins.DashboardStats(users, sensors, measures, c.now())
	return &d, nil
}

func (c *Client) Markers(ctx context.Context) ([]joins.Marker, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return joins.MapMarkers(users), nil
}
