package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"iot-dashboard/cache"
	"iot-dashboard/entities"
	"iot-dashboard/logger"
	"iot-dashboard/usecases"
)

type measureWriter interface {
	CreateBatch(ctx context.Context, measures []entities.Measure) (int, error)
}

// DataProcessor periodically moves readings received over sensor sockets
// from the buffer into the store.
type DataProcessor struct {
	buffer   *cache.MeasureBuffer
	writer   measureWriter
	interval time.Duration

	// flushMu keeps a manual flush and a tick from draining concurrently.
	flushMu sync.Mutex
}

func NewDataProcessor(writer measureWriter, buffer *cache.MeasureBuffer, interval time.Duration) *DataProcessor {
	return &DataProcessor{
		buffer:   buffer,
		writer:   writer,
		interval: interval,
	}
}

// Start flushes every interval until ctx is done, then flushes one last
// time. The returned channel is closed once that last flush has finished.
func (dp *DataProcessor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(dp.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, _ = dp.ProcessCachedData(ctx)
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				_, _ = dp.ProcessCachedData(final)
				cancel()
				return
			}
		}
	}()
	return done
}

// ProcessCachedData stores the significant buffered readings and returns how
// many were written. Each sensor is written on its own: a sensor whose
// readings are invalid loses them, a store failure puts that sensor's
// readings back in the buffer, and the other sensors are unaffected.
func (dp *DataProcessor) ProcessCachedData(ctx context.Context) (int, error) {
	dp.flushMu.Lock()
	defer dp.flushMu.Unlock()

	log := logger.FromContext(ctx)
	drained := dp.buffer.Drain()
	if len(drained) == 0 {
		log.Debug("no cached measures to process")
		return 0, nil
	}

	ids := make([]string, 0, len(drained))
	for id := range drained {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stored := 0
	var errs []error
	for _, id := range ids {
		points := map[string][]cache.BufferedMeasure{id: drained[id]}
		batch := dp.buffer.Significant(points)
		if len(batch) == 0 {
			continue
		}
		n, err := dp.writer.CreateBatch(ctx, batch)
		if err != nil {
			entry := log.WithField("sensorID", id).WithError(err)
			var verr *usecases.ValidationError
			if errors.As(err, &verr) {
				entry.Errorf("dropping %d cached measures", len(batch))
			} else {
				dp.buffer.Restore(points)
				entry.Errorf("storing %d cached measures failed, kept for retry", len(batch))
			}
			errs = append(errs, fmt.Errorf("sensor %s: %w", id, err))
			continue
		}
		stored += n
	}
	if stored > 0 {
		log.Infof("stored %d cached measures", stored)
	}
	return stored, errors.Join(errs...)
}

func (dp *DataProcessor) AddMeasure(m entities.Measure) {
	dp.buffer.Add(m)
}

func (dp *DataProcessor) GetAllCachedData() map[string][]cache.BufferedMeasure {
	return dp.buffer.Snapshot()
}

func (dp *DataProcessor) GetCacheStats() cache.Stats {
	return dp.buffer.Stats()
}
