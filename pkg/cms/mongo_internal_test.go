package cms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuildMongoFilter(t *testing.T) {
	t.Parallel()

	f := buildMongoFilter(Query{
		Type:   "contacts",
		Filter: map[string]any{"metadata.tags": []string{"a", "b"}},
	})
	assert.Equal(t, "contacts", f["type"])
	assert.Equal(t, bson.A{
		bson.M{"$or": bson.A{
			bson.M{"metadata.tags": bson.M{"$in": []any{"a", "b"}}},
			bson.M{"metadata.tags.key": bson.M{"$in": []any{"a", "b"}}},
		}},
	}, f["$and"])

	f = buildMongoFilter(Query{ID: "x", Filter: map[string]any{"id": "y"}})
	assert.Equal(t, "x", f["_id"])
	assert.Equal(t, bson.A{
		bson.M{"$or": bson.A{bson.M{"_id": "y"}, bson.M{"_id.key": "y"}}},
	}, f["$and"])

	assert.Equal(t, bson.M{}, buildMongoFilter(Query{}))
}

func TestMongoSort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, mongoSort(""))
	assert.Equal(t, bson.D{{Key: "title", Value: 1}}, mongoSort("title"))
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, mongoSort("-id"))
}

func TestNormalizeObject(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	o := Object{Metadata: map[string]any{
		"status": bson.D{{Key: "key", Value: "subscribed"}, {Key: "value", Value: "Subscribed"}},
		"tags":   bson.A{"a", "b"},
		"stats":  bson.M{"delivered": int32(4), "recipients": int64(5)},
		"sent":   bson.NewDateTimeFromTime(ts),
	}}
	normalizeObject(&o)

	assert.Equal(t, map[string]any{"key": "subscribed", "value": "Subscribed"}, o.Metadata["status"])
	assert.Equal(t, []any{"a", "b"}, o.Metadata["tags"])
	assert.Equal(t, map[string]any{"delivered": 4, "recipients": 5}, o.Metadata["stats"])
	assert.Equal(t, ts, o.Metadata["sent"])

	empty := Object{}
	normalizeObject(&empty)
	assert.NotNil(t, empty.Metadata)
}
