package repositories

import (
	"context"
	"testing"
	"time"

	"iot-dashboard/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const mockNS = "iot.documents"

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func found(doc bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch, doc)
}

// deleted answers a findAndModify; a nil doc means nothing matched.
func deleted(doc bson.D) bson.D {
	if doc == nil {
		return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
	}
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func replaced(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestUserMongoRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("create then get", func(mt *mtest.T) {
		repo := &userMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &entities.User{Location: "italy", PersonsInHouse: 4}
		require.NoError(mt, repo.Create(ctx, u))
		require.NotEmpty(mt, u.ID)
		assert.Equal(mt, entities.HouseMedium, u.HouseSize)
		assert.False(mt, u.CreatedAt.IsZero())

		oid, err := primitive.ObjectIDFromHex(u.ID)
		require.NoError(mt, err)
		mt.AddMockResponses(found(bson.D{
			{Key: "_id", Value: oid},
			{Key: "location", Value: "italy"},
			{Key: "personsInHouse", Value: 4},
			{Key: "houseSize", Value: "medium"},
			{Key: "createdAt", Value: u.CreatedAt},
			{Key: "updatedAt", Value: u.UpdatedAt},
		}))
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(mt, err)
		assert.Equal(mt, u.ID, got.ID)
		assert.Equal(mt, "italy", got.Location)
		assert.Equal(mt, 4, got.PersonsInHouse)
		assert.Equal(mt, entities.HouseMedium, got.HouseSize)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := &userMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := &userMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(replaced(0))

		err := repo.Update(ctx, &entities.User{ID: primitive.NewObjectID().Hex(), Location: "peru", PersonsInHouse: 1})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update derives house size", func(mt *mtest.T) {
		repo := &userMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(replaced(1))

		u := &entities.User{ID: primitive.NewObjectID().Hex(), Location: "peru", PersonsInHouse: 6}
		require.NoError(mt, repo.Update(ctx, u))

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		assert.Equal(mt, "update", sent.CommandName)
		updates := sent.Command.Lookup("updates").Array()
		assert.Equal(mt, "big", updates.Lookup("0", "u", "houseSize").StringValue())
	})

	mt.Run("delete twice", func(mt *mtest.T) {
		repo := &userMongoRepository{coll: mt.Coll}
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			deleted(bson.D{{Key: "_id", Value: oid}, {Key: "location", Value: "japan"}, {Key: "personsInHouse", Value: 2}, {Key: "houseSize", Value: "small"}}),
			deleted(nil),
		)

		user, err := repo.Delete(ctx, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "japan", user.Location)

		_, err = repo.Delete(ctx, oid.Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed ids never reach the server", func(mt *mtest.T) {
		repo := &userMongoRepository{coll: mt.Coll}

		_, err := repo.GetByID(ctx, "42")
		assert.ErrorIs(mt, err, ErrInvalidID)
		_, err = repo.Delete(ctx, "42")
		assert.ErrorIs(mt, err, ErrInvalidID)
		assert.ErrorIs(mt, repo.Update(ctx, &entities.User{ID: "42"}), ErrInvalidID)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestSensorMongoRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("by user", func(mt *mtest.T) {
		repo := &sensorMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "type", Value: "temperature"}, {Key: "model", Value: "DHT22"}, {Key: "location", Value: "kitchen"}, {Key: "userId", Value: "u1"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "type", Value: "humidity"}, {Key: "model", Value: "DHT11"}, {Key: "location", Value: "attic"}, {Key: "userId", Value: "u1"}},
		))

		sensors, err := repo.GetByUserID(ctx, "u1")
		require.NoError(mt, err)
		require.Len(mt, sensors, 2)
		assert.Equal(mt, "kitchen", sensors[0].Location)
		assert.Equal(mt, "u1", sensors[1].UserID)

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		assert.Equal(mt, "u1", sent.Command.Lookup("filter", "userId").StringValue())
	})

	mt.Run("empty list", func(mt *mtest.T) {
		repo := &sensorMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch))

		sensors, err := repo.GetAll(ctx)
		require.NoError(mt, err)
		assert.NotNil(mt, sensors)
		assert.Empty(mt, sensors)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := &sensorMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(replaced(0))

		err := repo.Update(ctx, &entities.Sensor{ID: primitive.NewObjectID().Hex(), Type: "t", Model: "m", Location: "l", UserID: "u"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMeasureMongoRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("create batch assigns ids", func(mt *mtest.T) {
		repo := &measureMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		batch := []entities.Measure{
			{Type: entities.MeasureTemperature, SensorID: "s1", Value: 20, CreationDate: at},
			{Type: entities.MeasureHumidity, SensorID: "s1", Value: 45, CreationDate: at},
		}
		require.NoError(mt, repo.CreateBatch(ctx, batch))
		assert.NotEmpty(mt, batch[0].ID)
		assert.NotEmpty(mt, batch[1].ID)
		assert.NotEqual(mt, batch[0].ID, batch[1].ID)

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		assert.Equal(mt, "insert", sent.CommandName)
	})

	mt.Run("empty batch is a no-op", func(mt *mtest.T) {
		repo := &measureMongoRepository{coll: mt.Coll}
		require.NoError(mt, repo.CreateBatch(ctx, nil))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("find", func(mt *mtest.T) {
		repo := &measureMongoRepository{coll: mt.Coll}
		oid := primitive.NewObjectID()
		mt.AddMockResponses(found(bson.D{
			{Key: "_id", Value: oid},
			{Key: "type", Value: "temperature"},
			{Key: "creationDate", Value: at},
			{Key: "sensorID", Value: "s1"},
			{Key: "value", Value: 21.5},
		}))

		sensorID := "s1"
		minValue := 20.0
		got, err := repo.Find(ctx, entities.MeasureFilter{SensorID: &sensorID, MinValue: &minValue})
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, oid.Hex(), got[0].ID)
		assert.Equal(mt, 21.5, got[0].Value)
		assert.True(mt, at.Equal(got[0].CreationDate))

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		assert.Equal(mt, "s1", sent.Command.Lookup("filter", "sensorID").StringValue())
		assert.Equal(mt, 20.0, sent.Command.Lookup("filter", "value", "$gte").Double())
	})

	mt.Run("delete twice", func(mt *mtest.T) {
		repo := &measureMongoRepository{coll: mt.Coll}
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			deleted(bson.D{{Key: "_id", Value: oid}, {Key: "type", Value: "humidity"}, {Key: "sensorID", Value: "s2"}, {Key: "value", Value: 50.0}, {Key: "creationDate", Value: at}}),
			deleted(nil),
		)

		m, err := repo.Delete(ctx, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, entities.MeasureHumidity, m.Type)

		_, err = repo.Delete(ctx, oid.Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := &measureMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(replaced(0))

		err := repo.Update(ctx, &entities.Measure{ID: primitive.NewObjectID().Hex(), Type: entities.MeasureTemperature, SensorID: "s1", Value: 1, CreationDate: at})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := &measureMongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found(bson.D{{Key: "n", Value: int32(7)}}))

		n, err := repo.Count(ctx)
		require.NoError(mt, err)
		assert.EqualValues(mt, 7, n)
	})
}
