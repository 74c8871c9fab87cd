package metadata

import (
	"context"
	"errors"
	"time"

	"github.com/code19m/errx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "files"
	connectTimeout = 10 * time.Second
)

// MongoStore persists file records in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures
// the unique index on file_id.
func NewMongoStore(uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errx.New("failed to connect to mongodb", errx.WithDetails(errx.D{"error": err}))
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, errx.New("mongodb ping failed", errx.WithDetails(errx.D{"error": err}))
	}

	collection := client.Database(database).Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "file_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, errx.New("failed to create file_id index", errx.WithDetails(errx.D{"error": err}))
	}

	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) Insert(ctx context.Context, rec *FileRecord) error {
	_, err := s.collection.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errx.New(
				"file id already exists",
				errx.WithCode(CodeDuplicateID),
				errx.WithType(errx.T_Conflict),
				errx.WithDetails(errx.D{"file_id": rec.ID}),
			)
		}
		return errx.Wrap(err)
	}
	return nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*FileRecord, error) {
	var rec FileRecord
	err := s.collection.FindOne(ctx, bson.M{"file_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errx.New(
				"file record not found",
				errx.WithCode(CodeRecordNotFound),
				errx.WithType(errx.T_NotFound),
				errx.WithDetails(errx.D{"file_id": id}),
			)
		}
		return nil, errx.Wrap(err)
	}
	return &rec, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]*FileRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer cursor.Close(ctx)

	var records []*FileRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errx.Wrap(err)
	}
	return records, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return errx.Wrap(s.client.Ping(ctx, nil))
}

func (s *MongoStore) Close(ctx context.Context) error {
	return errx.Wrap(s.client.Disconnect(ctx))
}
