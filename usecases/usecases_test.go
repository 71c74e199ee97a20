package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"iot-dashboard/db"
	"iot-dashboard/entities"
	"iot-dashboard/repositories"
	"iot-dashboard/schemas"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	got []entities.Measure
	err error
}

func (c *capture) PublishMeasure(_ context.Context, m entities.Measure) error {
	c.got = append(c.got, m)
	return c.err
}

type fixture struct {
	repos    repositories.Set
	users    *UserUseCase
	sensors  *SensorUseCase
	measures *MeasureUseCase
	views    *ViewUseCase
	events   *capture
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	database, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	repos := repositories.NewGormSet(database)
	v := schemas.MustNewValidator()
	c := &capture{}
	return &fixture{
		repos:    repos,
		users:    NewUserUseCase(repos.Users, v),
		sensors:  NewSensorUseCase(repos.Sensors, repos.Users, v, strict),
		measures: NewMeasureUseCase(repos.Measures, repos.Sensors, v, c, strict),
		views:    NewViewUseCase(repos),
		events:   c,
	}
}

func TestUserCreateDerivesHouseSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	u, err := f.users.CreateJSON(ctx, []byte(`{"location":"italy","personsInHouse":5,"houseSize":"small"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, entities.HouseBig, u.HouseSize)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "italy", got.Location)
	assert.Equal(t, 5, got.PersonsInHouse)
	assert.Equal(t, entities.HouseBig, got.HouseSize)
}

func TestUserCreateRejectsBadPayloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.users.CreateJSON(ctx, []byte(`{"location":"italy"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "personsInHouse")

	_, err = f.users.CreateJSON(ctx, []byte(`{"location":"italy","personsInHouse":"three"}`))
	require.ErrorAs(t, err, &verr)

	err = f.users.Create(ctx, &entities.User{Location: " ", PersonsInHouse: 0})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.FieldErrors, 2)
}

func TestUserUpdateKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	u := &entities.User{Location: "peru", PersonsInHouse: 1}
	require.NoError(t, f.users.Create(ctx, u))

	updated, err := f.users.UpdateJSON(ctx, u.ID, []byte(`{"personsInHouse":4}`))
	require.NoError(t, err)
	assert.Equal(t, "peru", updated.Location)
	assert.Equal(t, entities.HouseMedium, updated.HouseSize)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "peru", got.Location)
	assert.Equal(t, 4, got.PersonsInHouse)
}

func TestMissingIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	missing := uuid.NewString()
	location := "x"

	_, err := f.users.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.users.Update(ctx, missing, entities.UserPatch{Location: &location})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.users.Delete(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.sensors.Get(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = f.measures.Delete(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	s, err := f.sensors.CreateJSON(ctx, []byte(`{"type":"temperature","model":"DHT22","location":"bedroom","userID":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)

	deleted, err := f.sensors.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "DHT22", deleted.Model)

	_, err = f.sensors.Delete(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStrictReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	err := f.sensors.Create(ctx, &entities.Sensor{Type: "t", Model: "m", Location: "l", UserID: uuid.NewString()})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "userId")

	u := &entities.User{Location: "italy", PersonsInHouse: 2}
	require.NoError(t, f.users.Create(ctx, u))
	s := &entities.Sensor{Type: "t", Model: "m", Location: "l", UserID: u.ID}
	require.NoError(t, f.sensors.Create(ctx, s))

	err = f.measures.Create(ctx, &entities.Measure{Type: entities.MeasureHumidity, SensorID: "nope", CreationDate: time.Now()})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "sensorID")

	require.NoError(t, f.measures.Create(ctx, &entities.Measure{Type: entities.MeasureHumidity, SensorID: s.ID, CreationDate: time.Now(), Value: 40}))
}

func TestMeasureCreatePublishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.events.err = errors.New("broker down")

	m, err := f.measures.CreateJSON(ctx, []byte(`{"type":"temperature","creationDate":"2024-01-02T10:00:00+02:00","sensorId":"s1","value":21.5}`))
	require.NoError(t, err)
	assert.Equal(t, "s1", m.SensorID)
	assert.Equal(t, time.UTC, m.CreationDate.Location())
	assert.Equal(t, 8, m.CreationDate.Hour())
	require.Len(t, f.events.got, 1)
	assert.Equal(t, m.ID, f.events.got[0].ID)

	_, err = f.measures.CreateJSON(ctx, []byte(`{"type":"temperature","creationDate":"2024-01-02T10:00:00Z","sensorID":"s1","value":"hot"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "value")
}

func TestMeasureFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	n, err := f.measures.CreateBatch(ctx, []entities.Measure{
		{Type: entities.MeasureTemperature, SensorID: "s1", Value: 10, CreationDate: base},
		{Type: entities.MeasureTemperature, SensorID: "s1", Value: 20, CreationDate: base.Add(time.Hour)},
		{Type: entities.MeasureTemperature, SensorID: "s1", Value: 30, CreationDate: base.Add(2 * time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, f.events.got, 3)

	got, err := f.measures.FilterParams(ctx, MeasureFilterParams{MinValue: "15"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 20.0, got[0].Value)
	assert.Equal(t, 30.0, got[1].Value)

	got, err = f.measures.FilterParams(ctx, MeasureFilterParams{
		StartDate: "2024-02-01T08:30:00Z",
		EndDate:   "2024-02-01T09:30:00Z",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0].Value)

	_, err = f.measures.FilterParams(ctx, MeasureFilterParams{MinValue: "abc"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "minValue")

	bySensor, err := f.measures.ListBySensor(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, bySensor)
}

func TestCreateBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.measures.CreateBatch(ctx, []entities.Measure{
		{Type: entities.MeasureHumidity, SensorID: "s1", CreationDate: time.Now()},
		{Type: "pressure", SensorID: "s1", CreationDate: time.Now()},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "measures[1].type")

	n, err := f.measures.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseMeasureFilter(t *testing.T) {
	f, err := ParseMeasureFilter(MeasureFilterParams{
		Type:      "humidity",
		SensorID:  "s1",
		StartDate: "2024-01-01",
		MaxValue:  "9.5",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.MeasureHumidity, *f.Type)
	assert.Equal(t, "s1", *f.SensorID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
	assert.Nil(t, f.EndDate)
	assert.Equal(t, 9.5, *f.MaxValue)

	empty, err := ParseMeasureFilter(MeasureFilterParams{})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = ParseMeasureFilter(MeasureFilterParams{Type: "pressure", EndDate: "yesterday"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "type")
	assert.Contains(t, verr.FieldErrors, "endDate")

	_, err = ParseMeasureFilter(MeasureFilterParams{MinValue: "5", MaxValue: "1"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "maxValue")
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	u := &entities.User{Location: "italy", PersonsInHouse: 3}
	require.NoError(t, f.users.Create(ctx, u))
	owned := &entities.Sensor{Type: "temperature", Model: "DHT22", Location: "bedroom", UserID: u.ID}
	orphan := &entities.Sensor{Type: "humidity", Model: "SHT31", Location: "kitchen", UserID: "gone"}
	require.NoError(t, f.sensors.Create(ctx, owned))
	require.NoError(t, f.sensors.Create(ctx, orphan))
	require.NoError(t, f.measures.Create(ctx, &entities.Measure{Type: entities.MeasureTemperature, SensorID: owned.ID, Value: 18, CreationDate: time.Now()}))

	locations, err := f.views.SensorLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	byID := map[string]*string{}
	for _, l := range locations {
		byID[l.ID] = l.UserLocation
	}
	require.NotNil(t, byID[owned.ID])
	assert.Equal(t, "italy", *byID[owned.ID])
	assert.Nil(t, byID[orphan.ID])

	us, err := f.views.UserWithSensors(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, us.Sensors, 1)

	stats, err := f.views.SensorStats(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Nil(t, stats.Mean)

	_, err = f.views.SensorWithMeasures(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f.views.now = func() time.Time { return now }
	d, err := f.views.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Users)
	assert.Equal(t, 2, d.Sensors)
	assert.Equal(t, 1, d.Measures)
	assert.Equal(t, now, d.Date)

	markers, err := f.views.Markers(ctx)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "italy", markers[0].Country)
}

type unreachableUsers struct {
	repositories.UserRepository
}

func (unreachableUsers) GetAll(context.Context) ([]entities.User, error) {
	return nil, errors.New("connection reset by peer")
}

func TestSensorLocationsSurviveUserReadFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.sensors.Create(ctx, &entities.Sensor{Type: "temperature", Model: "DHT22", Location: "kitchen", UserID: "u1"}))

	views := NewViewUseCase(repositories.Set{
		Users:    unreachableUsers{f.repos.Users},
		Sensors:  f.repos.Sensors,
		Measures: f.repos.Measures,
	})
	locations, err := views.SensorLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "kitchen", locations[0].Location)
	assert.Nil(t, locations[0].UserLocation)
	assert.Nil(t, locations[0].PersonsInHouse)
	assert.Nil(t, locations[0].HouseSize)

	_, err = views.Dashboard(ctx)
	var serr *StoreError
	assert.ErrorAs(t, err, &serr)
}

type batchCapture struct {
	capture
	batches int
}

func (b *batchCapture) PublishMeasures(_ context.Context, ms []entities.Measure) error {
	b.batches++
	b.got = append(b.got, ms...)
	return nil
}

func TestCreateBatchPublishesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	pub := &batchCapture{}
	measures := NewMeasureUseCase(f.repos.Measures, f.repos.Sensors, schemas.MustNewValidator(), pub, false)

	n, err := measures.CreateBatch(ctx, []entities.Measure{
		{Type: entities.MeasureHumidity, SensorID: "s1", Value: 40, CreationDate: time.Now()},
		{Type: entities.MeasureTemperature, SensorID: "s1", Value: 21, CreationDate: time.Now()},
		{Type: entities.MeasureAirPollution, SensorID: "s2", Value: 12, CreationDate: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, pub.batches)
	require.Len(t, pub.got, 3)
	for _, m := range pub.got {
		assert.NotEmpty(t, m.ID)
	}
}
