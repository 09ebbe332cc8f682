package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	blogCollection = "blogs"
	userCollection = "users"
)

type Database struct {
	blogRepo *BlogRepo
	userRepo *UserRepo
}

// New initializes a Database with each repository sharing the same
// Mongo database handle.
func New(db *mongo.Database) Database {
	return Database{
		blogRepo: NewBlogRepo(db.Collection(blogCollection)),
		userRepo: NewUserRepo(db.Collection(userCollection)),
	}
}

func (d Database) BlogRepo() *BlogRepo {
	return d.blogRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

// Connect establishes a connection to MongoDB, verifies it with a ping
// and returns the database handle.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return client.Database(dbName), nil
}

// EnsureIndexes creates the unique indexes the application relies on.
// The slug index is the actual uniqueness guarantee for posts; the
// pre-insert lookup is only a cheap first pass.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	blogIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "author", Value: 1}}},
	}
	if _, err := db.Collection(blogCollection).Indexes().CreateMany(ctx, blogIndexes); err != nil {
		return fmt.Errorf("creating blog indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
	}
	if _, err := db.Collection(userCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}

	return nil
}
