package entities

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeasureType is the physical quantity a measure records.
type MeasureType string

const (
	MeasureHumidity     MeasureType = "humidity"
	MeasureTemperature  MeasureType = "temperature"
	MeasureAirPollution MeasureType = "airPollution"
)

// MeasureTypes lists every accepted measure type.
var MeasureTypes = []MeasureType{MeasureHumidity, MeasureTemperature, MeasureAirPollution}

// Valid reports whether t is one of MeasureTypes.
func (t MeasureType) Valid() bool {
	for _, known := range MeasureTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Measure is a single reading taken by a sensor.
type Measure struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Type         MeasureType `gorm:"type:varchar(16);index;not null" json:"type"`
	CreationDate time.Time   `gorm:"index;not null" json:"creationDate"`
	SensorID     string      `gorm:"index;type:varchar(36);not null" json:"sensorID"`
	Value        float64     `gorm:"not null" json:"value"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// MeasurePatch carries the fields of a partial measure update.
type MeasurePatch struct {
	Type         *MeasureType `json:"type,omitempty"`
	CreationDate *time.Time   `json:"creationDate,omitempty"`
	SensorID     *string      `json:"sensorID,omitempty"`
	Value        *float64     `json:"value,omitempty"`
}

func (p MeasurePatch) Apply(m *Measure) {
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.CreationDate != nil {
		m.CreationDate = p.CreationDate.UTC()
	}
	if p.SensorID != nil {
		m.SensorID = *p.SensorID
	}
	if p.Value != nil {
		m.Value = *p.Value
	}
}

func (m *Measure) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

func (m *Measure) BeforeSave(tx *gorm.DB) (err error) {
	m.CreationDate = m.CreationDate.UTC()
	return
}

// MeasureFilter selects measures. Every nil field is unconstrained; the
// set fields are combined with AND.
type MeasureFilter struct {
	Type      *MeasureType
	SensorID  *string
	StartDate *time.Time
	EndDate   *time.Time
	MinValue  *float64
	MaxValue  *float64
}

// IsEmpty reports whether the filter has no constraint at all.
func (f MeasureFilter) IsEmpty() bool {
	return f.Type == nil && f.SensorID == nil && f.StartDate == nil &&
		f.EndDate == nil && f.MinValue == nil && f.MaxValue == nil
}

// Match applies the filter to a single measure.
func (f MeasureFilter) Match(m Measure) bool {
	if f.Type != nil && m.Type != *f.Type {
		return false
	}
	if f.SensorID != nil && m.SensorID != *f.SensorID {
		return false
	}
	if f.StartDate != nil && m.CreationDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && m.CreationDate.After(*f.EndDate) {
		return false
	}
	if f.MinValue != nil && m.Value < *f.MinValue {
		return false
	}
	if f.MaxValue != nil && m.Value > *f.MaxValue {
		return false
	}
	return true
}

// Values encodes the filter as the query string of GET /measures/filter.
func (f MeasureFilter) Values() url.Values {
	v := url.Values{}
	if f.Type != nil {
		v.Set("type", string(*f.Type))
	}
	if f.SensorID != nil {
		v.Set("sensorID", *f.SensorID)
	}
	if f.StartDate != nil {
		v.Set("startDate", f.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if f.EndDate != nil {
		v.Set("endDate", f.EndDate.UTC().Format(time.RFC3339Nano))
	}
	if f.MinValue != nil {
		v.Set("minValue", strconv.FormatFloat(*f.MinValue, 'f', -1, 64))
	}
	if f.MaxValue != nil {
		v.Set("maxValue", strconv.FormatFloat(*f.MaxValue, 'f', -1, 64))
	}
	return v
}
