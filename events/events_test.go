package events

import (
	"context"
	"errors"
	"testing"

	"iot-dashboard/entities"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []entities.Measure
	err error
}

func (r *recorder) PublishMeasure(_ context.Context, m entities.Measure) error {
	r.got = append(r.got, m)
	return r.err
}

type batchRecorder struct {
	batches [][]entities.Measure
}

func (b *batchRecorder) PublishMeasure(ctx context.Context, m entities.Measure) error {
	return b.PublishMeasures(ctx, []entities.Measure{m})
}

func (b *batchRecorder) PublishMeasures(_ context.Context, ms []entities.Measure) error {
	b.batches = append(b.batches, ms)
	return nil
}

type fakeWriter struct {
	msgs   []kafka.Message
	calls  int
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestMultiCallsEveryPublisher(t *testing.T) {
	boom := errors.New("boom")
	first := &recorder{err: boom}
	second := &recorder{}

	err := Multi{first, nil, second}.PublishMeasure(context.Background(), entities.Measure{ID: "m1"})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.got, 1)
	assert.Len(t, second.got, 1)
	assert.NoError(t, Nop{}.PublishMeasure(context.Background(), entities.Measure{}))
}

func TestKafkaPublisherKeysBySensor(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "measures"}

	m := entities.Measure{ID: "m1", SensorID: "s1", Type: entities.MeasureHumidity, Value: 41.5}
	require.NoError(t, p.PublishMeasure(context.Background(), m))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "s1", string(w.msgs[0].Key))

	var decoded entities.Measure
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, m.ID, decoded.ID)
	assert.Equal(t, 41.5, decoded.Value)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishAllUsesBatchesWhenSupported(t *testing.T) {
	ms := []entities.Measure{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}
	single := &recorder{}
	batch := &batchRecorder{}

	require.NoError(t, Multi{single, batch}.PublishMeasures(context.Background(), ms))
	assert.Len(t, single.got, 3)
	require.Len(t, batch.batches, 1)
	assert.Len(t, batch.batches[0], 3)

	assert.NoError(t, PublishAll(context.Background(), single, nil))
	assert.Len(t, single.got, 3)
}

func TestKafkaPublisherWritesBatchOnce(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "measures"}

	ms := []entities.Measure{
		{ID: "m1", SensorID: "s1", Type: entities.MeasureTemperature, Value: 20},
		{ID: "m2", SensorID: "s2", Type: entities.MeasureHumidity, Value: 40},
	}
	require.NoError(t, PublishAll(context.Background(), p, ms))
	assert.Equal(t, 1, w.calls)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "s2", string(w.msgs[1].Key))
	assert.Equal(t, "humidity", string(w.msgs[1].Headers[0].Value))
}

func TestKafkaWriterIsAsync(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "measures")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Completion)
	assert.NoError(t, p.Close())
}
