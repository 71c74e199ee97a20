package usecases

import (
	"strconv"
	"strings"
	"time"

	"iot-dashboard/entities"
)

// MeasureFilterParams is the raw query of GET /measures/filter. Empty
// strings mean the criterion is absent.
type MeasureFilterParams struct {
	Type      string `form:"type"`
	SensorID  string `form:"sensorID"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	MinValue  string `form:"minValue"`
	MaxValue  string `form:"maxValue"`
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 timestamps and plain dates, the latter being
// midnight UTC.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(dateOnly, raw, time.UTC)
}

// ParseMeasureFilter turns query parameters into a typed filter. Anything
// that is present but cannot be parsed is reported, never ignored.
func ParseMeasureFilter(p MeasureFilterParams) (entities.MeasureFilter, error) {
	var f entities.MeasureFilter
	v := &ValidationError{}

	if s := strings.TrimSpace(p.Type); s != "" {
		t := entities.MeasureType(s)
		if t.Valid() {
			f.Type = &t
		} else {
			v.add("type", "must be one of humidity, temperature, airPollution")
		}
	}
	if s := strings.TrimSpace(p.SensorID); s != "" {
		f.SensorID = &s
	}
	if s := strings.TrimSpace(p.StartDate); s != "" {
		if t, err := parseDate(s); err == nil {
			f.StartDate = &t
		} else {
			v.add("startDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
	}
	if s := strings.TrimSpace(p.EndDate); s != "" {
		if t, err := parseDate(s); err == nil {
			f.EndDate = &t
		} else {
			v.add("endDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
	}
	if s := strings.TrimSpace(p.MinValue); s != "" {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.MinValue = &n
		} else {
			v.add("minValue", "must be a number")
		}
	}
	if s := strings.TrimSpace(p.MaxValue); s != "" {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.MaxValue = &n
		} else {
			v.add("maxValue", "must be a number")
		}
	}

	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		v.add("endDate", "must not be before startDate")
	}
	if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
		v.add("maxValue", "must not be lower than minValue")
	}
	return f, v.orNil()
}
