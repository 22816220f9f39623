package cms

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/emailcraft/pkg/slug"
)

// MongoStore keeps objects in a single MongoDB collection.
type MongoStore struct {
	coll      *mongo.Collection
	relations Relations
	now       func() time.Time
}

type MongoOption func(*MongoStore)

func WithMongoRelations(r Relations) MongoOption {
	return func(s *MongoStore) { s.relations = r }
}

func NewMongoStore(db *mongo.Database, collection string, opts ...MongoOption) *MongoStore {
	if collection == "" {
		collection = "objects"
	}
	s := &MongoStore{
		coll: db.Collection(collection),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the indexes list queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "slug", Value: 1}}},
	})
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, q Query) ([]Object, int, error) {
	if err := q.validate(); err != nil {
		return nil, 0, err
	}

	filter := buildMongoFilter(q)
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Join(ErrRequestFailed, err)
	}

	opts := options.Find().SetSort(mongoSort(q.Sort))
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Join(ErrRequestFailed, err)
	}
	var objs []Object
	if err := cur.All(ctx, &objs); err != nil {
		return nil, 0, errors.Join(ErrRequestFailed, err)
	}

	for i := range objs {
		normalizeObject(&objs[i])
		if q.Depth > 0 {
			if err := resolveRelations(ctx, &objs[i], s.relations, s.get); err != nil {
				return nil, 0, err
			}
		}
		objs[i] = applyProps(objs[i], q.Props)
	}
	if objs == nil {
		objs = []Object{}
	}
	return objs, int(total), nil
}

func (s *MongoStore) FindOne(ctx context.Context, q Query) (*Object, error) {
	var o Object
	err := s.coll.FindOne(ctx, buildMongoFilter(q), options.FindOne().SetSort(mongoSort(q.Sort))).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	normalizeObject(&o)
	if q.Depth > 0 {
		if err := resolveRelations(ctx, &o, s.relations, s.get); err != nil {
			return nil, err
		}
	}
	o = applyProps(o, q.Props)
	return &o, nil
}

func (s *MongoStore) InsertOne(ctx context.Context, in InsertInput) (*Object, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	o := Object{
		ID:         bson.NewObjectID().Hex(),
		Slug:       in.Slug,
		Title:      strings.TrimSpace(in.Title),
		Type:       in.Type,
		Status:     in.Status,
		CreatedAt:  now,
		ModifiedAt: now,
		Metadata:   in.Metadata,
	}
	if o.Slug == "" {
		o.Slug = slug.Make(o.Title)
	}
	if o.Status == "" {
		o.Status = StatusPublished
	}
	if o.Status == StatusPublished {
		o.PublishedAt = &now
	}
	if o.Metadata == nil {
		o.Metadata = map[string]any{}
	}

	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	return &o, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, id string, in UpdateInput) (*Object, error) {
	set := bson.M{"modified_at": s.now().UTC().Truncate(time.Millisecond)}
	unset := bson.M{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		set["title"] = title
	}
	for k, v := range in.Metadata {
		if v == nil {
			unset["metadata."+k] = ""
			continue
		}
		set["metadata."+k] = v
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var o Object
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	normalizeObject(&o)
	return &o, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	return nil
}

func (s *MongoStore) get(ctx context.Context, id string) (*Object, error) {
	return s.FindOne(ctx, Query{ID: id})
}

// buildMongoFilter translates a Query into a Mongo filter document. Every
// filter entry matches either the raw value or a select value's key.
func buildMongoFilter(q Query) bson.M {
	filter := bson.M{}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.ID != "" {
		filter["_id"] = q.ID
	}

	var and bson.A
	for path, want := range q.Filter {
		if path == "id" {
			path = "_id"
		}
		cond := any(want)
		if items, ok := asSlice(want); ok {
			cond = bson.M{"$in": items}
		}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{path: cond},
			bson.M{path + ".key": cond},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func mongoSort(field string) bson.D {
	if field == "" {
		field = "-created_at"
	}
	dir := 1
	if f, ok := strings.CutPrefix(field, "-"); ok {
		field, dir = f, -1
	}
	if field == "id" {
		field = "_id"
	}
	return bson.D{{Key: field, Value: dir}}
}

// normalizeObject converts driver container types into plain maps and
// slices so objects look the same whichever backend produced them.
func normalizeObject(o *Object) {
	if o.Metadata == nil {
		o.Metadata = map[string]any{}
		return
	}
	for k, v := range o.Metadata {
		o.Metadata[k] = normalizeBSON(v)
	}
}

func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeBSON(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalizeBSON(e)
		}
		return m
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeBSON(e)
		}
		return t
	case bson.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeBSON(t[i])
		}
		return out
	case []any:
		for i := range t {
			t[i] = normalizeBSON(t[i])
		}
		return t
	case bson.DateTime:
		return t.Time().UTC()
	case int32:
		return int(t)
	case int64:
		return int(t)
	default:
		return v
	}
}
