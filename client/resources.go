package client

import (
	"context"
	"net/http"
	"net/url"

	"iot-dashboard/entities"
)

func (c *Client) ListUsers(ctx context.Context) ([]entities.User, error) {
	var out []entities.User
	err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (*entities.User, error) {
	var out entities.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser sends location and personsInHouse; the server derives the rest.
func (c *Client) CreateUser(ctx context.Context, u entities.User) (*entities.User, error) {
	in := map[string]any{"location": u.Location, "personsInHouse": u.PersonsInHouse}
	var out entities.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	var out entities.User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) (*entities.User, error) {
	var out entities.User
	if err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSensors(ctx context.Context) ([]entities.Sensor, error) {
	var out []entities.Sensor
	err := c.do(ctx, http.MethodGet, "/sensors", nil, nil, &out)
	return out, err
}

func (c *Client) GetSensor(ctx context.Context, id string) (*entities.Sensor, error) {
	var out entities.Sensor
	if err := c.do(ctx, http.MethodGet, "/sensors/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSensor(ctx context.Context, s entities.Sensor) (*entities.Sensor, error) {
	in := entities.SensorPatch{Type: &s.Type, Model: &s.Model, Location: &s.Location, UserID: &s.UserID}
	var out entities.Sensor
	if err := c.do(ctx, http.MethodPost, "/sensors", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSensor(ctx context.Context, id string, patch entities.SensorPatch) (*entities.Sensor, error) {
	var out entities.Sensor
	if err := c.do(ctx, http.MethodPut, "/sensors/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSensor(ctx context.Context, id string) (*entities.Sensor, error) {
	var out entities.Sensor
	if err := c.do(ctx, http.MethodDelete, "/sensors/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMeasures returns all measures, or the filtered ones when f has any
// criterion set.
func (c *Client) ListMeasures(ctx context.Context, f entities.MeasureFilter) ([]entities.Measure, error) {
	var out []entities.Measure
	if f.IsEmpty() {
		err := c.do(ctx, http.MethodGet, "/measures", nil, nil, &out)
		return out, err
	}
	err := c.do(ctx, http.MethodGet, "/measures/filter", f.Values(), nil, &out)
	return out, err
}

func (c *Client) GetMeasure(ctx context.Context, id string) (*entities.Measure, error) {
	var out entities.Measure
	if err := c.do(ctx, http.MethodGet, "/measures/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateMeasure(ctx context.Context, m entities.Measure) (*entities.Measure, error) {
	date := m.CreationDate.UTC()
	in := entities.MeasurePatch{Type: &m.Type, CreationDate: &date, SensorID: &m.SensorID, Value: &m.Value}
	var out entities.Measure
	if err := c.do(ctx, http.MethodPost, "/measures", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMeasure(ctx context.Context, id string, patch entities.MeasurePatch) (*entities.Measure, error) {
	var out entities.Measure
	if err := c.do(ctx, http.MethodPut, "/measures/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMeasure(ctx context.Context, id string) (*entities.Measure, error) {
	var out entities.Measure
	if err := c.do(ctx, http.MethodDelete, "/measures/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
