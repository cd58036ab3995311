// Package docstore connects to MongoDB, the alternative backing store.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store owns the client and the selected database.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect dials uri, pings the primary and selects database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{Client: client, DB: client.Database(name)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// Index declares the indexes a collection requires.
type Index struct {
	Collection string
	Models     []mongo.IndexModel
}

// EnsureIndexes creates every declared index. Creating an index that
// already exists with the same options is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context, indexes ...[]Index) error {
	for _, group := range indexes {
		for _, idx := range group {
			if len(idx.Models) == 0 {
				continue
			}
			if _, err := s.DB.Collection(idx.Collection).Indexes().CreateMany(ctx, idx.Models); err != nil {
				return fmt.Errorf("create indexes on %s: %w", idx.Collection, err)
			}
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// DuplicateKeyOn reports whether err is a unique violation of the named
// index. The server only reports the index name in the error message.
func DuplicateKeyOn(err error, index string) bool {
	return IsDuplicateKey(err) && strings.Contains(err.Error(), index)
}

// IsNotFound reports whether a single-document read matched nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
