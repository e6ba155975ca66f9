package store

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/observability"
)

// MongoConfig configures the MongoDB-backed store.
type MongoConfig struct {
	URI      string // mongodb:// connection string
	Database string // defaults to "occlude"
}

// Mongo stores each persisted map in its own collection. Documents wrap the
// record as a JSON payload, so the card model stays free of bson tags; the
// parent id is duplicated into an indexed wrapper field for child lookups.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// mongoDoc is the wrapper document stored in every collection.
type mongoDoc struct {
	ID     string `bson:"_id"`
	Parent string `bson:"parent,omitempty"`
	Data   []byte `bson:"data"`
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "pinging mongodb")
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = "occlude"
	}
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

func (m *Mongo) get(ctx context.Context, collection, id string, v any) (bool, error) {
	var doc mongoDoc
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "reading %s/%s", collection, id)
	}
	if err := json.Unmarshal(doc.Data, v); err != nil {
		// Corrupt payload - treat as absent, matching the other backends.
		return false, nil
	}
	return true, nil
}

func (m *Mongo) put(ctx context.Context, collection, id, parent string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "encoding %s/%s", collection, id)
	}
	doc := mongoDoc{ID: id, Parent: parent, Data: data}
	_, err = m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "writing %s/%s", collection, id)
	}
	return nil
}

// ParentDefinition implements Store, clamping loaded rectangles.
func (m *Mongo) ParentDefinition(ctx context.Context, parentID string) (card.ParentDefinition, bool, error) {
	var def card.ParentDefinition
	ok, err := m.get(ctx, "definitions", parentID, &def)
	if !ok || err != nil {
		return def, ok, err
	}
	return def.Clamped(), true, nil
}

// PutParentDefinition implements Store.
func (m *Mongo) PutParentDefinition(ctx context.Context, parentID string, def card.ParentDefinition) error {
	return m.put(ctx, "definitions", parentID, "", def)
}

// Parent implements Store.
func (m *Mongo) Parent(ctx context.Context, id string) (card.Card, bool, error) {
	var c card.Card
	ok, err := m.get(ctx, "parents", id, &c)
	return c, ok, err
}

// PutParent implements Store.
func (m *Mongo) PutParent(ctx context.Context, c card.Card) error {
	return m.put(ctx, "parents", c.ID, "", c)
}

// ParentIDs implements Store.
func (m *Mongo) ParentIDs(ctx context.Context) ([]string, error) {
	cursor, err := m.db.Collection("definitions").Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "listing parent ids")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// Children implements card.ChildStore, using the wrapper's parent field.
func (m *Mongo) Children(ctx context.Context, parentID string) ([]card.ChildRecord, error) {
	cursor, err := m.db.Collection("children").Find(ctx, bson.M{"parent": parentID})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "listing children of %s", parentID)
	}
	defer cursor.Close(ctx)

	var out []card.ChildRecord
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		var c card.ChildRecord
		if err := json.Unmarshal(doc.Data, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, cursor.Err()
}

// Child returns one child record by id.
func (m *Mongo) Child(ctx context.Context, id string) (card.ChildRecord, bool, error) {
	var c card.ChildRecord
	ok, err := m.get(ctx, "children", id, &c)
	return c, ok, err
}

// PutChild implements card.ChildStore.
func (m *Mongo) PutChild(ctx context.Context, child card.ChildRecord) error {
	return m.put(ctx, "children", child.ID, child.ParentID, child)
}

// Scheduling implements card.ChildStore.
func (m *Mongo) Scheduling(ctx context.Context, cardID string) (card.SchedulingRecord, bool, error) {
	var rec card.SchedulingRecord
	ok, err := m.get(ctx, "scheduling", cardID, &rec)
	return rec, ok, err
}

// PutScheduling implements card.ChildStore.
func (m *Mongo) PutScheduling(ctx context.Context, rec card.SchedulingRecord) error {
	return m.put(ctx, "scheduling", rec.CardID, "", rec)
}

// Persist implements Store. Mongo writes are acknowledged as they happen;
// this only reports through the store hooks.
func (m *Mongo) Persist(ctx context.Context) error {
	start := time.Now()
	observability.Store().OnPersist(ctx, "mongo", time.Since(start), nil)
	return nil
}

// Close implements Store.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

var _ Store = (*Mongo)(nil)
