package events

import (
	"context"
	"errors"

	"iot-dashboard/entities"
)

// Publisher is notified of every measure that was stored.
type Publisher interface {
	PublishMeasure(ctx context.Context, m entities.Measure) error
}

// BatchPublisher is implemented by publishers that can send several
// measures in one round trip.
type BatchPublisher interface {
	PublishMeasures(ctx context.Context, ms []entities.Measure) error
}

// PublishAll hands measures to p in one call when p supports batches and
// one by one otherwise.
func PublishAll(ctx context.Context, p Publisher, ms []entities.Measure) error {
	if len(ms) == 0 {
		return nil
	}
	if bp, ok := p.(BatchPublisher); ok {
		return bp.PublishMeasures(ctx, ms)
	}
	var errs []error
	for _, m := range ms {
		if err := p.PublishMeasure(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops everything.
type Nop struct{}

func (Nop) PublishMeasure(context.Context, entities.Measure) error { return nil }

// Multi fans a measure out to several publishers. Every publisher is
// called even if an earlier one failed; the failures are joined.
type Multi []Publisher

func (m Multi) PublishMeasure(ctx context.Context, measure entities.Measure) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishMeasure(ctx, measure); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PublishMeasures(ctx context.Context, ms []entities.Measure) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := PublishAll(ctx, p, ms); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
