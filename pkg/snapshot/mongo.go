package snapshot

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// DefaultMongoCollection holds versions unless configured otherwise.
const DefaultMongoCollection = "versions"

// MongoStore keeps one document per version, keyed by version ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and ensures the created_at index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}

	coll := client.Database(database).Collection(DefaultMongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Save upserts v.
func (s *MongoStore) Save(ctx context.Context, v *Version) error {
	if err := validate(v); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": v.ID}, v, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save version %s", v.ID)
	}
	return nil
}

// Get loads one version.
func (s *MongoStore) Get(ctx context.Context, id string) (*Version, error) {
	if err := errors.ValidateVersionID(id); err != nil {
		return nil, notFound(id)
	}
	var v Version
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get version %s", id)
	}
	return &v, nil
}

// List returns summaries newest first. Graphs are projected out.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"graph": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list versions")
	}
	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list versions")
	}
	return out, nil
}

// Delete removes one version.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateVersionID(id); err != nil {
		return notFound(id)
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete version %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
