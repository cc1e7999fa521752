package report

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/slotfit/pkg/errors"
)

// MongoStore keeps one document per run, keyed by run id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and pings the server.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if err := errors.ValidateURL(uri, "mongodb", "mongodb+srv"); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}
	return NewMongoStoreFromCollection(client, client.Database(database).Collection(collection)), nil
}

// NewMongoStoreFromCollection wraps an existing collection.
func NewMongoStoreFromCollection(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

func (s *MongoStore) Save(ctx context.Context, rep *Report) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rep.RunID}, rep, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save report %s", rep.RunID)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, runID string) (*Report, error) {
	var rep Report
	err := s.coll.FindOne(ctx, bson.M{"_id": runID}).Decode(&rep)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "report %s not found", runID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load report %s", runID)
	}
	return &rep, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list reports")
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var rep Report
		if err := cur.Decode(&rep); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode report")
		}
		out = append(out, rep.Summarize())
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list reports")
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
