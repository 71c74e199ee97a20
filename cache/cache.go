package cache

import (
	"math"
	"sync"
	"time"

	"iot-dashboard/entities"
)

// BufferedMeasure is a socket reading waiting to be stored.
type BufferedMeasure struct {
	Measure  entities.Measure `json:"measure"`
	CachedAt time.Time        `json:"cachedAt"`
}

// Stats describes the buffer content.
type Stats struct {
	Sensors   int       `json:"sensors"`
	Measures  int       `json:"measures"`
	Threshold float64   `json:"threshold"`
	LastFlush time.Time `json:"lastFlush,omitempty"`
}

// MeasureBuffer holds readings received over sensor sockets until the
// ingestor writes them to the store.
type MeasureBuffer struct {
	mu        sync.RWMutex
	pending   map[string][]BufferedMeasure // sensorID -> readings
	threshold float64
	lastFlush time.Time
}

func NewMeasureBuffer(threshold float64) *MeasureBuffer {
	return &MeasureBuffer{
		pending:   make(map[string][]BufferedMeasure),
		threshold: threshold,
	}
}

func (b *MeasureBuffer) Add(m entities.Measure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[m.SensorID] = append(b.pending[m.SensorID], BufferedMeasure{Measure: m, CachedAt: time.Now()})
}

// Snapshot returns a copy of the buffered readings.
func (b *MeasureBuffer) Snapshot() map[string][]BufferedMeasure {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]BufferedMeasure, len(b.pending))
	for id, points := range b.pending {
		out[id] = append([]BufferedMeasure(nil), points...)
	}
	return out
}

// Drain empties the buffer and returns what it held.
func (b *MeasureBuffer) Drain() map[string][]BufferedMeasure {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = make(map[string][]BufferedMeasure)
	b.lastFlush = time.Now()
	return out
}

// Restore puts drained readings back, ahead of anything received since.
func (b *MeasureBuffer) Restore(drained map[string][]BufferedMeasure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, points := range drained {
		b.pending[id] = append(append([]BufferedMeasure(nil), points...), b.pending[id]...)
	}
}

func (b *MeasureBuffer) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, points := range b.pending {
		total += len(points)
	}
	return Stats{Sensors: len(b.pending), Measures: total, Threshold: b.threshold, LastFlush: b.lastFlush}
}

// Significant reduces the readings of every sensor to the ones that moved
// by at least the threshold since the last kept reading of the same type.
// The first and the last reading of each type are always kept.
func (b *MeasureBuffer) Significant(drained map[string][]BufferedMeasure) []entities.Measure {
	var out []entities.Measure
	for _, points := range drained {
		kept := make(map[entities.MeasureType]entities.Measure)
		last := make(map[entities.MeasureType]entities.Measure)
		var order []entities.MeasureType
		for _, p := range points {
			m := p.Measure
			prev, seen := kept[m.Type]
			if !seen {
				order = append(order, m.Type)
			}
			if !seen || math.Abs(m.Value-prev.Value) >= b.threshold {
				out = append(out, m)
				kept[m.Type] = m
			}
			last[m.Type] = m
		}
		for _, t := range order {
			if last[t] != kept[t] {
				out = append(out, last[t])
			}
		}
	}
	return out
}
