// Package joins builds the composed dashboard views out of already fetched
// collections. Every function is pure: lookups go through id indexes built
// once per call, never through nested scans.
package joins

import (
	"time"

	"iot-dashboard/entities"
)

// IndexUsers maps user ids to users. Later duplicates overwrite earlier ones.
func IndexUsers(users []entities.User) map[string]entities.User {
	idx := make(map[string]entities.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

func IndexSensors(sensors []entities.Sensor) map[string]entities.Sensor {
	idx := make(map[string]entities.Sensor, len(sensors))
	for _, s := range sensors {
		idx[s.ID] = s
	}
	return idx
}

// SensorLocation is a sensor enriched with the household of its owner.
// The owner fields are null when the owner cannot be found.
type SensorLocation struct {
	entities.Sensor
	UserLocation   *string             `json:"userLocation"`
	PersonsInHouse *int                `json:"personsInHouse"`
	HouseSize      *entities.HouseSize `json:"houseSize"`
}

func SensorLocations(users []entities.User, sensors []entities.Sensor) []SensorLocation {
	owners := IndexUsers(users)
	out := make([]SensorLocation, 0, len(sensors))
	for _, s := range sensors {
		row := SensorLocation{Sensor: s}
		if u, ok := owners[s.UserID]; ok {
			location, persons, size := u.Location, u.PersonsInHouse, u.HouseSize
			row.UserLocation = &location
			row.PersonsInHouse = &persons
			row.HouseSize = &size
		}
		out = append(out, row)
	}
	return out
}

type UserSensors struct {
	User    entities.User     `json:"user"`
	Sensors []entities.Sensor `json:"sensors"`
}

// UserWithSensors keeps the sensors owned by user, in input order.
func UserWithSensors(user entities.User, sensors []entities.Sensor) UserSensors {
	owned := make([]entities.Sensor, 0)
	for _, s := range sensors {
		if s.UserID == user.ID {
			owned = append(owned, s)
		}
	}
	return UserSensors{User: user, Sensors: owned}
}

type SensorMeasures struct {
	Sensor   entities.Sensor    `json:"sensor"`
	Measures []entities.Measure `json:"measures"`
}

func SensorWithMeasures(sensor entities.Sensor, measures []entities.Measure) SensorMeasures {
	taken := make([]entities.Measure, 0)
	for _, m := range measures {
		if m.SensorID == sensor.ID {
			taken = append(taken, m)
		}
	}
	return SensorMeasures{Sensor: sensor, Measures: taken}
}

// Stats summarises a list of measures. Mean, Min, Max and Latest are nil
// for an empty list.
type Stats struct {
	Count  int               `json:"count"`
	Mean   *float64          `json:"mean"`
	Min    *float64          `json:"min"`
	Max    *float64          `json:"max"`
	Latest *entities.Measure `json:"latest"`
}

// SensorStats computes Stats. When several measures share the latest
// creation date the first one encountered is kept.
func SensorStats(measures []entities.Measure) Stats {
	st := Stats{Count: len(measures)}
	if len(measures) == 0 {
		return st
	}
	first := measures[0]
	lo, hi, sum := first.Value, first.Value, 0.0
	latest := first
	for _, m := range measures {
		sum += m.Value
		if m.Value < lo {
			lo = m.Value
		}
		if m.Value > hi {
			hi = m.Value
		}
		if m.CreationDate.After(latest.CreationDate) {
			latest = m
		}
	}
	mean := sum / float64(len(measures))
	st.Mean, st.Min, st.Max, st.Latest = &mean, &lo, &hi, &latest
	return st
}

type Dashboard struct {
	Users             int                          `json:"users"`
	Sensors           int                          `json:"sensors"`
	Measures          int                          `json:"measures"`
	Date              time.Time                    `json:"date"`
	UsersByLocation   map[string]int               `json:"usersByLocation"`
	SensorsByLocation map[string]int               `json:"sensorsByLocation"`
	MeasuresByType    map[entities.MeasureType]int `json:"measuresByType"`
}

// DashboardStats counts the collections. now is the date shown on the
// dashboard.
func DashboardStats(users []entities.User, sensors []entities.Sensor, measures []entities.Measure, now time.Time) Dashboard {
	d := Dashboard{
		Users:             len(users),
		Sensors:           len(sensors),
		Measures:          len(measures),
		Date:              now,
		UsersByLocation:   make(map[string]int),
		SensorsByLocation: make(map[string]int),
		MeasuresByType:    make(map[entities.MeasureType]int),
	}
	for _, u := range users {
		d.UsersByLocation[u.Location]++
	}
	for _, s := range sensors {
		d.SensorsByLocation[s.Location]++
	}
	for _, m := range measures {
		d.MeasuresByType[m.Type]++
	}
	return d
}
