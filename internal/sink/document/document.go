// Package document writes datasets into a DocumentDB or MongoDB collection,
// one document per row with the dataset's column order kept.
package document

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/dataset"
	"github.com/JonMunkholm/dbroute/internal/logging"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

func init() {
	sink.Register(sink.Document, func(_ context.Context, targets config.Targets) (sink.Sink, error) {
		return New(targets.Document)
	})
}

// Collection is the write surface of a collection.
type Collection interface {
	InsertOne(ctx context.Context, doc bson.D) error
}

// Store is a connected database.
type Store interface {
	Collection(name string) Collection
	Close(ctx context.Context) error
}

// Sink is the document store.
type Sink struct {
	cfg     config.DocumentConfig
	connect func(ctx context.Context, cfg config.DocumentConfig) (Store, error)
}

// New validates cfg and returns a sink. The database defaults to the one
// named in the URI path.
func New(cfg config.DocumentConfig) (*Sink, error) {
	if err := sink.Required(sink.Document, "DOCUMENTDB_URI", cfg.URI); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		if cs, err := connstring.Parse(cfg.URI); err == nil {
			cfg.Database = cs.Database
		}
	}
	if err := sink.Required(sink.Document, "DOCUMENTDB_DATABASE", cfg.Database); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Sink{cfg: cfg, connect: connect}, nil
}

// Kind implements sink.Sink.
func (s *Sink) Kind() sink.Kind { return sink.Document }

// Insert writes one document per row. The first failed insert stops the
// call; documents written before it stay written.
func (s *Sink) Insert(ctx context.Context, ds *dataset.Dataset, collection string) (sink.Result, error) {
	var res sink.Result
	logger := logging.ForTarget(ctx, "documentdb", collection)

	store, err := s.connect(ctx, s.cfg)
	if err != nil {
		return res, &sink.SinkError{Kind: sink.Document, Op: "connect", Err: err}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("disconnect failed", "error", err)
		}
	}()

	coll := store.Collection(collection)
	for i, row := range ds.Rows {
		if err := coll.InsertOne(ctx, toDocument(ds.Columns, row)); err != nil {
			logger.Warn("insert stopped", "row", i+1, "inserted", res.Inserted, "error", err)
			return res, &sink.SinkError{Kind: sink.Document, Op: fmt.Sprintf("insert document %d", i+1), Err: err}
		}
		res.Inserted++
	}

	logger.Info("documents inserted", "rows", res.Inserted)
	return res, nil
}

// toDocument keeps column order and empty strings.
func toDocument(columns []string, row dataset.Row) bson.D {
	doc := make(bson.D, 0, len(columns))
	for _, col := range columns {
		doc = append(doc, bson.E{Key: col, Value: row.Get(col).Text()})
	}
	return doc
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func connect(ctx context.Context, cfg config.DocumentConfig) (Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &mongoStore{client: client, db: client.Database(cfg.Database)}, nil
}

func (m *mongoStore) Collection(name string) Collection {
	return mongoCollection{m.db.Collection(name)}
}

func (m *mongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoCollection struct {
	c *mongo.Collection
}

func (m mongoCollection) InsertOne(ctx context.Context, doc bson.D) error {
	_, err := m.c.InsertOne(ctx, doc)
	return err
}
