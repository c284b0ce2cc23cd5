package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryBackend keeps documents in process memory. Documents are stored as
// BSON so reads and writes go through the same codec as the mongo driver.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	closed      bool
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]*memoryCollection)}
}

// Collection returns the named collection, creating it on first use.
func (b *MemoryBackend) Collection(name string) RawCollection {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[name]
	if !ok {
		c = &memoryCollection{backend: b}
		b.collections[name] = c
	}
	return c
}

// Ping fails once the backend is closed.
func (b *MemoryBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the backend closed.
func (b *MemoryBackend) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// EnsureUnique rejects later writes that repeat a string value of field. It
// fails when the collection already holds such a repetition.
func (b *MemoryBackend) EnsureUnique(ctx context.Context, collection, field string) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	c := b.Collection(collection).(*memoryCollection)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range c.unique {
		if f == field {
			return nil
		}
	}
	seen := make(map[string]bool, len(c.docs))
	for _, doc := range c.docs {
		v, ok := uniqueValue(doc, field)
		if !ok {
			continue
		}
		if seen[v] {
			return fmt.Errorf("%w: %s %q", ErrDuplicateKey, field, v)
		}
		seen[v] = true
	}
	c.unique = append(c.unique, field)
	return nil
}

func (b *MemoryBackend) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

type memoryCollection struct {
	backend *MemoryBackend
	mu      sync.RWMutex
	docs    []bson.D
	unique  []string
}

func (c *memoryCollection) Find(ctx context.Context, filter Filter) ([]bson.Raw, error) {
	if err := c.backend.check(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []bson.Raw
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (c *memoryCollection) FindOne(ctx context.Context, filter Filter) (bson.Raw, error) {
	if err := c.backend.check(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, err := c.index(filter)
	if err != nil || i < 0 {
		return nil, err
	}
	return bson.Marshal(c.docs[i])
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc bson.D) (*InsertResult, error) {
	if err := c.backend.check(ctx); err != nil {
		return nil, err
	}
	id, ok := lookup(doc, "_id")
	if !ok {
		return nil, fmt.Errorf("document has no _id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.index(Filter{"_id": id})
	if err != nil {
		return nil, err
	}
	if i >= 0 {
		return nil, fmt.Errorf("%w: _id %v", ErrDuplicateKey, id)
	}
	if err := c.checkUnique(doc, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, cloneDoc(doc))
	return &InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter Filter, set Fields) (*UpdateResult, error) {
	if err := c.backend.check(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	res := &UpdateResult{Acknowledged: true}
	i, err := c.index(filter)
	if err != nil || i < 0 {
		return res, err
	}
	res.MatchedCount = 1

	updated := cloneDoc(c.docs[i])
	for _, e := range set {
		updated = setField(updated, e.Key, e.Value)
	}

	before, err := bson.Marshal(c.docs[i])
	if err != nil {
		return nil, err
	}
	after, err := bson.Marshal(updated)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(before, after) {
		// Re-read through the codec so stored values have decoded types.
		var doc bson.D
		if err := bson.Unmarshal(after, &doc); err != nil {
			return nil, err
		}
		if err := c.checkUnique(doc, i); err != nil {
			return nil, err
		}
		c.docs[i] = doc
		res.ModifiedCount = 1
	}
	return res, nil
}

func (c *memoryCollection) DeleteOne(ctx context.Context, filter Filter) (*DeleteResult, error) {
	if err := c.backend.check(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	res := &DeleteResult{Acknowledged: true}
	i, err := c.index(filter)
	if err != nil || i < 0 {
		return res, err
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	res.DeletedCount = 1
	return res, nil
}

// index returns the position of the first document matching filter, or -1.
// Callers hold c.mu.
func (c *memoryCollection) index(filter Filter) (int, error) {
	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

// checkUnique fails when doc repeats a unique value held by a document other
// than the one at position self. Callers hold c.mu.
func (c *memoryCollection) checkUnique(doc bson.D, self int) error {
	for _, field := range c.unique {
		v, ok := uniqueValue(doc, field)
		if !ok {
			continue
		}
		for j, other := range c.docs {
			if j == self {
				continue
			}
			if ov, ok := uniqueValue(other, field); ok && ov == v {
				return fmt.Errorf("%w: %s %q", ErrDuplicateKey, field, v)
			}
		}
	}
	return nil
}

func uniqueValue(doc bson.D, field string) (string, bool) {
	v, ok := lookup(doc, field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func matches(doc bson.D, filter Filter) (bool, error) {
	for key, want := range filter {
		got, ok := lookup(doc, key)
		if want == nil {
			if ok && got != nil {
				return false, nil
			}
			continue
		}
		if !ok || got == nil {
			return false, nil
		}
		eq, err := equalValues(got, want)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// equalValues compares two values by their BSON encoding.
func equalValues(a, b any) (bool, error) {
	ta, da, err := bson.MarshalValue(a)
	if err != nil {
		return false, err
	}
	tb, db, err := bson.MarshalValue(b)
	if err != nil {
		return false, err
	}
	return ta == tb && bytes.Equal(da, db), nil
}

func lookup(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func setField(doc bson.D, key string, value any) bson.D {
	for i, e := range doc {
		if e.Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

func cloneDoc(doc bson.D) bson.D {
	out := make(bson.D, len(doc))
	copy(out, doc)
	return out
}
