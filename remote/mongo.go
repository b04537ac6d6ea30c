package remote

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTree keeps one document per record:
//
//	{_id: "location/category/id", location, category, article_id, fields: {...}}
//
// Updates $set individual fields so concurrent writers to different fields
// of the same record do not clobber each other.
type MongoTree struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoDoc struct {
	ID        string `bson:"_id"`
	Location  string `bson:"location"`
	Category  string `bson:"category"`
	ArticleID string `bson:"article_id"`
	Fields    bson.M `bson:"fields"`
}

// NewMongoTree connects to uri and uses database.collection as the tree.
func NewMongoTree(ctx context.Context, uri, database, collection string) (*MongoTree, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoTree{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects the client.
func (m *MongoTree) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ReadAll returns every record under location/category ordered by id.
func (m *MongoTree) ReadAll(ctx context.Context, location, category string) ([]Entry, error) {
	filter := bson.M{"location": location, "category": category}
	cursor, err := m.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"article_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		entries = append(entries, Entry{ID: doc.ArticleID, Record: fromBSON(doc.Fields)})
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return entries, nil
}

// Read returns the record at path.
func (m *MongoTree) Read(ctx context.Context, path Path) (Record, bool, error) {
	if err := path.Validate(); err != nil {
		return nil, false, err
	}

	var doc mongoDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": path.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query record: %w", err)
	}
	return fromBSON(doc.Fields), true, nil
}

// Update upserts the document and sets each field individually.
func (m *MongoTree) Update(ctx context.Context, path Path, fields Record) error {
	if err := path.Validate(); err != nil {
		return err
	}

	_, err := m.collection.UpdateOne(ctx,
		bson.M{"_id": path.String()},
		bson.M{"$set": mongoSet(path, fields)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Remove deletes the document at path.
func (m *MongoTree) Remove(ctx context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": path.String()}); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// mongoSet builds the $set document for an update at path.
func mongoSet(path Path, fields Record) bson.M {
	set := bson.M{
		"location":   path.Location,
		"category":   path.Category,
		"article_id": path.ID,
	}
	for k, v := range fields {
		set["fields."+k] = v
	}
	return set
}

// fromBSON converts driver types into the plain Go values the rest of the
// module expects.
func fromBSON(m bson.M) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		rec[k] = plainValue(v)
	}
	return rec
}

func plainValue(v any) any {
	switch vv := v.(type) {
	case primitive.A:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = plainValue(item)
		}
		return out
	case int32:
		return int64(vv)
	case primitive.DateTime:
		return vv.Time().Unix()
	default:
		return v
	}
}
