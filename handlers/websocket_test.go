package handlers

import (
	"testing"
	"time"

	"iot-dashboard/entities"

	"github.com/stretchr/testify/assert"
)

func TestToMeasure(t *testing.T) {
	received := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	m, problem := toMeasure("s1", []byte(`{"type":"humidity","value":48.5}`), received)
	assert.Empty(t, problem)
	assert.Equal(t, "s1", m.SensorID)
	assert.Equal(t, entities.MeasureHumidity, m.Type)
	assert.Equal(t, received, m.CreationDate)

	m, problem = toMeasure("s1", []byte(`{"type":"temperature","value":0,"creationDate":"2024-01-01T10:00:00+01:00"}`), received)
	assert.Empty(t, problem)
	assert.Equal(t, 9, m.CreationDate.Hour())
	assert.Zero(t, m.Value)

	_, problem = toMeasure("s1", []byte(`{"type":"pressure","value":1}`), received)
	assert.NotEmpty(t, problem)
	_, problem = toMeasure("s1", []byte(`{"type":"humidity"}`), received)
	assert.NotEmpty(t, problem)
	_, problem = toMeasure("s1", []byte(`[]`), received)
	assert.NotEmpty(t, problem)
}
