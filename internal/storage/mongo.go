package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/types"
)

const (
	defaultMongoDatabase = "finadvisor"
	usersCollection      = "user_memory"
)

// MongoBackend stores one document per user, keyed by _id.
type MongoBackend struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoBackend connects, pings the primary and ensures indexes.
func NewMongoBackend(ctx context.Context, uri string) (*MongoBackend, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongodb uri is required", ErrStorage)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, wrap("connect mongodb", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrap("ping mongodb", err)
	}

	dbName := mongoDatabaseName(uri)
	b := &MongoBackend{
		client: client,
		users:  client.Database(dbName).Collection(usersCollection),
	}
	if err := b.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	slog.Info("connected to mongodb", "database", dbName)
	return b, nil
}

func (b *MongoBackend) ensureIndexes(ctx context.Context) error {
	_, err := b.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "last_seen", Value: -1}}},
		{Keys: bson.D{{Key: "preferred_personality", Value: 1}}},
	})
	if err != nil {
		return wrap("create indexes", err)
	}
	return nil
}

func (b *MongoBackend) LoadAll(ctx context.Context) (map[string]*types.UserRecord, error) {
	cursor, err := b.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, wrap("find user records", err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]*types.UserRecord)
	for cursor.Next(ctx) {
		var rec types.UserRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, wrap("decode user record", err)
		}
		out[rec.UserID] = &rec
	}
	if err := cursor.Err(); err != nil {
		return nil, wrap("iterate user records", err)
	}
	return out, nil
}

func (b *MongoBackend) Load(ctx context.Context, userID string) (*types.UserRecord, error) {
	var rec types.UserRecord
	err := b.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, wrap("find user record", err)
	}
	return &rec, nil
}

func (b *MongoBackend) Save(ctx context.Context, rec *types.UserRecord) error {
	if rec == nil || rec.UserID == "" {
		return fmt.Errorf("%w: record without user id", ErrStorage)
	}
	_, err := b.users.ReplaceOne(ctx, bson.M{"_id": rec.UserID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return wrap("upsert user record", err)
	}
	return nil
}

func (b *MongoBackend) Close(ctx context.Context) error {
	if err := b.client.Disconnect(ctx); err != nil {
		return wrap("disconnect mongodb", err)
	}
	return nil
}

// mongoDatabaseName takes the database from the URI path.
// mongodb://localhost:27017/advisor?authSource=admin -> advisor
func mongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}
