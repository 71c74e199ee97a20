package cache

import (
	"testing"
	"time"

	"iot-dashboard/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(sensor string, typ entities.MeasureType, value float64, at time.Time) entities.Measure {
	return entities.Measure{SensorID: sensor, Type: typ, Value: value, CreationDate: at}
}

func TestBufferDrainAndRestore(t *testing.T) {
	b := NewMeasureBuffer(0)
	now := time.Now()
	b.Add(reading("s1", entities.MeasureHumidity, 40, now))
	b.Add(reading("s1", entities.MeasureHumidity, 41, now))
	b.Add(reading("s2", entities.MeasureTemperature, 20, now))

	st := b.Stats()
	assert.Equal(t, 2, st.Sensors)
	assert.Equal(t, 3, st.Measures)

	snap := b.Snapshot()
	require.Len(t, snap["s1"], 2)

	drained := b.Drain()
	assert.Equal(t, 0, b.Stats().Measures)
	assert.False(t, b.Stats().LastFlush.IsZero())

	b.Add(reading("s1", entities.MeasureHumidity, 42, now))
	b.Restore(drained)
	again := b.Snapshot()
	require.Len(t, again["s1"], 3)
	assert.Equal(t, 40.0, again["s1"][0].Measure.Value)
	assert.Equal(t, 42.0, again["s1"][2].Measure.Value)
}

func TestSignificantKeepsMovesAboveThreshold(t *testing.T) {
	b := NewMeasureBuffer(1)
	now := time.Now()
	for i, v := range []float64{20, 20.2, 21.5, 21.6, 21.7} {
		b.Add(reading("s1", entities.MeasureTemperature, v, now.Add(time.Duration(i)*time.Second)))
	}
	b.Add(reading("s1", entities.MeasureHumidity, 50, now))

	got := b.Significant(b.Drain())

	var temps []float64
	for _, m := range got {
		if m.Type == entities.MeasureTemperature {
			temps = append(temps, m.Value)
		}
	}
	assert.Equal(t, []float64{20, 21.5, 21.7}, temps)
	assert.Len(t, got, 4)
}

func TestZeroThresholdKeepsEverything(t *testing.T) {
	b := NewMeasureBuffer(0)
	now := time.Now()
	for _, v := range []float64{1, 1, 1} {
		b.Add(reading("s1", entities.MeasureAirPollution, v, now))
	}
	assert.Len(t, b.Significant(b.Drain()), 3)
}
