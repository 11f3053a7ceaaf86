package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one collection per kind. Documents are
// {_id: <record id>, body: <record>} so records keep their own field names.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoRecord struct {
	ID   string   `bson:"_id"`
	Body bson.Raw `bson:"body"`
}

// NewMongoStore connects to uri and verifies the server is reachable
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w: %w", ErrUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w: %w", ErrUnavailable, err)
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) collection(kind Kind) *mongo.Collection {
	return s.db.Collection(kind.Collection())
}

// mongoErr marks connectivity failures so callers can answer 503
func mongoErr(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (s *MongoStore) Get(ctx context.Context, kind Kind, id string) ([]byte, error) {
	var rec mongoRecord
	err := s.collection(kind).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mongoErr("find "+kind.Collection(), err)
	}
	return toJSON(rec.Body)
}

func (s *MongoStore) List(ctx context.Context, kind Kind) ([][]byte, error) {
	cursor, err := s.collection(kind).Find(ctx, bson.M{})
	if err != nil {
		return nil, mongoErr("list "+kind.Collection(), err)
	}
	defer cursor.Close(ctx)

	out := [][]byte{}
	for cursor.Next(ctx) {
		var rec mongoRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", kind, err)
		}
		body, err := toJSON(rec.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	if err := cursor.Err(); err != nil {
		return nil, mongoErr("iterate "+kind.Collection(), err)
	}
	return out, nil
}

func (s *MongoStore) Put(ctx context.Context, kind Kind, id string, record []byte) error {
	var body bson.D
	if err := bson.UnmarshalExtJSON(record, false, &body); err != nil {
		return fmt.Errorf("failed to convert %s/%s to bson: %w", kind, id, err)
	}

	_, err := s.collection(kind).ReplaceOne(ctx,
		bson.M{"_id": id},
		bson.D{{Key: "_id", Value: id}, {Key: "body", Value: body}},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return mongoErr("upsert "+kind.Collection(), err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, kind Kind, id string) error {
	if _, err := s.collection(kind).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return mongoErr("delete from "+kind.Collection(), err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toJSON renders a stored body as relaxed extended JSON, which for the
// plain documents written by Put is ordinary JSON
func toJSON(body bson.Raw) ([]byte, error) {
	out, err := bson.MarshalExtJSON(body, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert bson to json: %w", err)
	}
	return out, nil
}
