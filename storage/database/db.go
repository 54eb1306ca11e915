package database

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/darasa/core"
)

// collections
const (
	UserCollection     = "user"
	ClassCollection    = "class"
	ResponseCollection = "response"
)

func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.Database.URI, "database.uri"),
		vala.StringNotEmpty(conf.Database.Name, "database.name"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "checking database config")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, client); err != nil {
		return nil, err
	}
	return client.Database(conf.Database.Name), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EnsureIndexes creates the indexes backing the uniqueness guarantees and the
// common queries. It is safe to run on every deploy.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// username/email are optional; partial filters keep absent values out of
	// the unique indexes.
	_, err := db.Collection(UserCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"username": bson.M{"$gt": ""}}),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
		},
		{Keys: bson.D{{Key: "class_ids", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "indexing user collection")
	}

	_, err = db.Collection(ClassCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "teacher_id", Value: 1}}},
		{Keys: bson.D{{Key: "student_ids", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "indexing class collection")
	}

	_, err = db.Collection(ResponseCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "quiz_id", Value: 1}, {Key: "student_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return errors.Wrap(err, "indexing response collection")
	}
	return nil
}
