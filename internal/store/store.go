package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

const tracerName = "github.com/vyrodovalexey/restaurant/internal/store"

// DefaultTimeout bounds a single store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Store errors.
var (
	// ErrInvalidID is returned when an identifier cannot be parsed as a document key.
	ErrInvalidID = errors.New("invalid document id")

	// ErrUnknownDriver is returned for an unsupported store driver.
	ErrUnknownDriver = errors.New("unknown store driver")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrDuplicateKey is returned when a write would repeat the value of a
	// unique field.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Filter is an equality filter on top-level document fields. A nil value
// matches documents where the field is null or absent.
type Filter = bson.M

// Fields is an ordered set of top-level fields to replace.
type Fields = bson.D

// InsertResult acknowledges an insert.
type InsertResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

// UpdateResult acknowledges an update.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedID    any   `json:"upsertedId"`
	UpsertedCount int64 `json:"upsertedCount"`
	MatchedCount  int64 `json:"matchedCount"`
}

// DeleteResult acknowledges a delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// RawCollection is the driver-level view of a collection. Documents cross
// it as raw BSON.
type RawCollection interface {
	Find(ctx context.Context, filter Filter) ([]bson.Raw, error)
	// FindOne returns nil without error when nothing matches.
	FindOne(ctx context.Context, filter Filter) (bson.Raw, error)
	// InsertOne stores doc. doc always carries an _id.
	InsertOne(ctx context.Context, doc bson.D) (*InsertResult, error)
	UpdateOne(ctx context.Context, filter Filter, set Fields) (*UpdateResult, error)
	DeleteOne(ctx context.Context, filter Filter) (*DeleteResult, error)
}

// Backend is a store driver.
type Backend interface {
	Collection(name string) RawCollection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// UniqueIndexer is implemented by backends that can enforce unique fields.
// Only string values take part in the constraint.
type UniqueIndexer interface {
	EnsureUnique(ctx context.Context, collection, field string) error
}

// Store is the document store shared by all resource kinds. It is safe for
// concurrent use.
type Store struct {
	backend Backend
	driver  string
	timeout time.Duration
	logger  observability.Logger
	metrics *Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// New wraps a backend.
func New(backend Backend, driver string, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		driver:  driver,
		timeout: DefaultTimeout,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	return s
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.StoreConfig, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrUnknownDriver)
	}

	opts = append([]Option{WithTimeout(cfg.Timeout.Duration())}, opts...)

	switch cfg.Driver {
	case config.StoreDriverMemory:
		return New(NewMemory(), cfg.Driver, opts...), nil
	case config.StoreDriverMongo:
		timeout := cfg.Timeout.Duration()
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		backend, err := ConnectMongo(ctx, cfg.URI, cfg.Database, timeout)
		if err != nil {
			return nil, err
		}
		return New(backend, cfg.Driver, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Driver returns the backend driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

// EnsureUnique makes the backend reject a second document with the same
// string value of field in collection. Backends without index support
// accept the call and enforce nothing.
func (s *Store) EnsureUnique(ctx context.Context, collection, field string) error {
	indexer, ok := s.backend.(UniqueIndexer)
	if !ok {
		s.logger.Warn("store driver cannot enforce unique fields",
			observability.String("collection", collection),
			observability.String("field", field))
		return nil
	}
	return s.run(ctx, collection, "createIndex", func(ctx context.Context) error {
		return indexer.EnsureUnique(ctx, collection, field)
	})
}

// skip records a stored document that does not decode into its record type.
func (s *Store) skip(ctx context.Context, collection string, raw bson.Raw, err error) {
	if s.metrics != nil {
		s.metrics.skipped.WithLabelValues(collection).Inc()
	}
	s.logger.WithContext(ctx).Warn("skipping undecodable document",
		observability.String("collection", collection),
		observability.String("id", raw.Lookup("_id").String()),
		observability.Error(err))
}

// run executes one store call under the per-call deadline, with a span and metrics.
func (s *Store) run(ctx context.Context, collection, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.driver),
			attribute.String("db.collection.name", collection),
			attribute.String("db.operation.name", op),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if s.metrics != nil {
		s.metrics.record(collection, op, err, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("store operation failed",
			observability.String("collection", collection),
			observability.String("operation", op),
			observability.Error(err))
		return fmt.Errorf("store %s %s: %w", collection, op, err)
	}
	return nil
}

// Collection is a typed collection of documents of type T. T must be a
// struct with bson tags whose identifier is tagged `bson:"_id,omitempty"`.
type Collection[T any] struct {
	store *Store
	name  string
	raw   RawCollection
}

// NewCollection returns the typed collection name of s.
func NewCollection[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name, raw: s.backend.Collection(name)}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Find returns every document matching filter. The result is never nil.
// Documents that do not decode into T are skipped and logged.
func (c *Collection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	var docs []bson.Raw
	err := c.store.run(ctx, c.name, "find", func(ctx context.Context) error {
		var err error
		docs, err = c.raw.Find(ctx, normalize(filter))
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, raw := range docs {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			c.store.skip(ctx, c.name, raw, err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// FindOne returns the first document matching filter, or nil when none does
// or when it does not decode into T.
func (c *Collection[T]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	var raw bson.Raw
	err := c.store.run(ctx, c.name, "findOne", func(ctx context.Context) error {
		var err error
		raw, err = c.raw.FindOne(ctx, normalize(filter))
		return err
	})
	if err != nil || raw == nil {
		return nil, err
	}

	var v T
	if err := bson.Unmarshal(raw, &v); err != nil {
		c.store.skip(ctx, c.name, raw, err)
		return nil, nil
	}
	return &v, nil
}

// EnsureUnique enforces unique string values of field in the collection.
func (c *Collection[T]) EnsureUnique(ctx context.Context, field string) error {
	return c.store.EnsureUnique(ctx, c.name, field)
}

// FindByID returns the document with id, or nil when absent.
func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, Filter{"_id": id})
}

// InsertOne stores doc. A missing identifier is generated.
func (c *Collection[T]) InsertOne(ctx context.Context, doc *T) (*InsertResult, error) {
	fields, err := toDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("store %s insertOne: %w", c.name, err)
	}

	var res *InsertResult
	err = c.store.run(ctx, c.name, "insertOne", func(ctx context.Context) error {
		var err error
		res, err = c.raw.InsertOne(ctx, fields)
		return err
	})
	return res, err
}

// UpdateByID replaces the given fields of the document with id.
func (c *Collection[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, set Fields) (*UpdateResult, error) {
	var res *UpdateResult
	err := c.store.run(ctx, c.name, "updateOne", func(ctx context.Context) error {
		var err error
		res, err = c.raw.UpdateOne(ctx, Filter{"_id": id}, set)
		return err
	})
	return res, err
}

// DeleteByID removes the document with id.
func (c *Collection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	var res *DeleteResult
	err := c.store.run(ctx, c.name, "deleteOne", func(ctx context.Context) error {
		var err error
		res, err = c.raw.DeleteOne(ctx, Filter{"_id": id})
		return err
	})
	return res, err
}

// toDocument marshals v into an ordered document with _id first.
func toDocument(v any) (bson.D, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	for _, e := range doc {
		if e.Key == "_id" {
			return doc, nil
		}
	}
	return append(bson.D{{Key: "_id", Value: primitive.NewObjectID()}}, doc...), nil
}

func normalize(filter Filter) Filter {
	if filter == nil {
		return Filter{}
	}
	return filter
}

// ParseID parses a path or query identifier into a document key. Both the
// 24-character hex form and a raw 12-byte string are accepted; anything else
// fails with ErrInvalidID.
func ParseID(s string) (primitive.ObjectID, error) {
	var id primitive.ObjectID
	switch len(s) {
	case 2 * len(id):
		if _, err := hex.Decode(id[:], []byte(s)); err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
		return id, nil
	case len(id):
		copy(id[:], s)
		return id, nil
	default:
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
}
