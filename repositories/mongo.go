package repositories

import (
	"context"
	"errors"
	"time"

	"iot-dashboard/db"
	"iot-dashboard/entities"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoSet returns repositories backed by MongoDB collections.
func NewMongoSet(database *db.MongoDatabase) Set {
	return Set{
		Users:    &userMongoRepository{coll: database.Collection(db.UsersCollection)},
		Sensors:  &sensorMongoRepository{coll: database.Collection(db.SensorsCollection)},
		Measures: &measureMongoRepository{coll: database.Collection(db.MeasuresCollection)},
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func byID(oid primitive.ObjectID) bson.M { return bson.M{"_id": oid} }

// ---- users

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Location       string             `bson:"location"`
	PersonsInHouse int                `bson:"personsInHouse"`
	HouseSize      string             `bson:"houseSize"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d userDocument) entity() entities.User {
	return entities.User{
		ID:             d.ID.Hex(),
		Location:       d.Location,
		PersonsInHouse: d.PersonsInHouse,
		HouseSize:      entities.HouseSize(d.HouseSize),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func userDoc(oid primitive.ObjectID, u *entities.User) userDocument {
	return userDocument{
		ID:             oid,
		Location:       u.Location,
		PersonsInHouse: u.PersonsInHouse,
		HouseSize:      string(entities.HouseSizeFor(u.PersonsInHouse)),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type userMongoRepository struct {
	coll *mongo.Collection
}

func (r *userMongoRepository) Create(ctx context.Context, user *entities.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	user.CreatedAt, user.UpdatedAt = now, now
	oid := primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, userDoc(oid, user)); err != nil {
		return err
	}
	user.ID = oid.Hex()
	user.HouseSize = entities.HouseSizeFor(user.PersonsInHouse)
	return nil
}

func (r *userMongoRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := r.coll.FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	user := doc.entity()
	return &user, nil
}

func (r *userMongoRepository) GetAll(ctx context.Context) ([]entities.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]entities.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.entity())
	}
	return users, nil
}

func (r *userMongoRepository) Update(ctx context.Context, user *entities.User) error {
	oid, err := objectID(user.ID)
	if err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.coll.ReplaceOne(ctx, byID(oid), userDoc(oid, user))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userMongoRepository) Delete(ctx context.Context, id string) (*entities.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := r.coll.FindOneAndDelete(ctx, byID(oid)).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	user := doc.entity()
	return &user, nil
}

func (r *userMongoRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

// ---- sensors

type sensorDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Type     string             `bson:"type"`
	Model    string             `bson:"model"`
	Location string             `bson:"location"`
	UserID   string             `bson:"userId"`
}

func (d sensorDocument) entity() entities.Sensor {
	return entities.Sensor{ID: d.ID.Hex(), Type: d.Type, Model: d.Model, Location: d.Location, UserID: d.UserID}
}

func sensorDoc(oid primitive.ObjectID, s *entities.Sensor) sensorDocument {
	return sensorDocument{ID: oid, Type: s.Type, Model: s.Model, Location: s.Location, UserID: s.UserID}
}

type sensorMongoRepository struct {
	coll *mongo.Collection
}

func (r *sensorMongoRepository) Create(ctx context.Context, sensor *entities.Sensor) error {
	oid := primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, sensorDoc(oid, sensor)); err != nil {
		return err
	}
	sensor.ID = oid.Hex()
	return nil
}

func (r *sensorMongoRepository) GetByID(ctx context.Context, id string) (*entities.Sensor, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc sensorDocument
	if err := r.coll.FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	sensor := doc.entity()
	return &sensor, nil
}

func (r *sensorMongoRepository) find(ctx context.Context, filter bson.M) ([]entities.Sensor, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []sensorDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	sensors := make([]entities.Sensor, 0, len(docs))
	for _, d := range docs {
		sensors = append(sensors, d.entity())
	}
	return sensors, nil
}

func (r *sensorMongoRepository) GetAll(ctx context.Context) ([]entities.Sensor, error) {
	return r.find(ctx, bson.M{})
}

func (r *sensorMongoRepository) GetByUserID(ctx context.Context, userID string) ([]entities.Sensor, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *sensorMongoRepository) Update(ctx context.Context, sensor *entities.Sensor) error {
	oid, err := objectID(sensor.ID)
	if err != nil {
		return err
	}
	res, err := r.coll.ReplaceOne(ctx, byID(oid), sensorDoc(oid, sensor))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sensorMongoRepository) Delete(ctx context.Context, id string) (*entities.Sensor, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc sensorDocument
	if err := r.coll.FindOneAndDelete(ctx, byID(oid)).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	sensor := doc.entity()
	return &sensor, nil
}

func (r *sensorMongoRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

// ---- measures

type measureDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Type         string             `bson:"type"`
	CreationDate time.Time          `bson:"creationDate"`
	SensorID     string             `bson:"sensorID"`
	Value        float64            `bson:"value"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d measureDocument) entity() entities.Measure {
	return entities.Measure{
		ID:           d.ID.Hex(),
		Type:         entities.MeasureType(d.Type),
		CreationDate: d.CreationDate.UTC(),
		SensorID:     d.SensorID,
		Value:        d.Value,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func measureDoc(oid primitive.ObjectID, m *entities.Measure) measureDocument {
	return measureDocument{
		ID:           oid,
		Type:         string(m.Type),
		CreationDate: m.CreationDate.UTC(),
		SensorID:     m.SensorID,
		Value:        m.Value,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// measureQuery translates a filter into a conjunctive mongo query.
func measureQuery(f entities.MeasureFilter) bson.M {
	q := bson.M{}
	if f.Type != nil {
		q["type"] = string(*f.Type)
	}
	if f.SensorID != nil {
		q["sensorID"] = *f.SensorID
	}
	date := bson.M{}
	if f.StartDate != nil {
		date["$gte"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		date["$lte"] = f.EndDate.UTC()
	}
	if len(date) > 0 {
		q["creationDate"] = date
	}
	value := bson.M{}
	if f.MinValue != nil {
		value["$gte"] = *f.MinValue
	}
	if f.MaxValue != nil {
		value["$lte"] = *f.MaxValue
	}
	if len(value) > 0 {
		q["value"] = value
	}
	return q
}

type measureMongoRepository struct {
	coll *mongo.Collection
}

func (r *measureMongoRepository) Create(ctx context.Context, measure *entities.Measure) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	measure.CreatedAt, measure.UpdatedAt = now, now
	oid := primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, measureDoc(oid, measure)); err != nil {
		return err
	}
	measure.ID = oid.Hex()
	return nil
}

func (r *measureMongoRepository) CreateBatch(ctx context.Context, measures []entities.Measure) error {
	if len(measures) == 0 {
		return nil
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, 0, len(measures))
	oids := make([]primitive.ObjectID, 0, len(measures))
	for i := range measures {
		measures[i].CreatedAt, measures[i].UpdatedAt = now, now
		oid := primitive.NewObjectID()
		oids = append(oids, oid)
		docs = append(docs, measureDoc(oid, &measures[i]))
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return err
	}
	for i, oid := range oids {
		measures[i].ID = oid.Hex()
	}
	return nil
}

func (r *measureMongoRepository) GetByID(ctx context.Context, id string) (*entities.Measure, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc measureDocument
	if err := r.coll.FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	measure := doc.entity()
	return &measure, nil
}

func (r *measureMongoRepository) GetAll(ctx context.Context) ([]entities.Measure, error) {
	return r.Find(ctx, entities.MeasureFilter{})
}

func (r *measureMongoRepository) Find(ctx context.Context, filter entities.MeasureFilter) ([]entities.Measure, error) {
	cur, err := r.coll.Find(ctx, measureQuery(filter), options.Find().SetSort(bson.D{{Key: "creationDate", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []measureDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	measures := make([]entities.Measure, 0, len(docs))
	for _, d := range docs {
		measures = append(measures, d.entity())
	}
	return measures, nil
}

func (r *measureMongoRepository) Update(ctx context.Context, measure *entities.Measure) error {
	oid, err := objectID(measure.ID)
	if err != nil {
		return err
	}
	measure.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.coll.ReplaceOne(ctx, byID(oid), measureDoc(oid, measure))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *measureMongoRepository) Delete(ctx context.Context, id string) (*entities.Measure, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc measureDocument
	if err := r.coll.FindOneAndDelete(ctx, byID(oid)).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	measure := doc.entity()
	return &measure, nil
}

func (r *measureMongoRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}
