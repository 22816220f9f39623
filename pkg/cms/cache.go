package cms

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached is a Store decorator caching reads in Redis. Every cache key embeds
// a per-type generation counter; writes bump the counter, so stale entries
// are never read again and simply expire.
type Cached struct {
	next      Store
	rdb       redis.UniversalClient
	ttl       time.Duration
	prefix    string
	relations Relations
}

type CacheOption func(*Cached)

func WithCachePrefix(p string) CacheOption {
	return func(c *Cached) { c.prefix = p }
}

// WithCacheRelations makes depth reads depend on the generations of the
// related types too.
func WithCacheRelations(r Relations) CacheOption {
	return func(c *Cached) { c.relations = r }
}

func NewCached(next Store, rdb redis.UniversalClient, ttl time.Duration, opts ...CacheOption) *Cached {
	c := &Cached{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "cms:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cachedList struct {
	Objects []Object `json:"objects"`
	Total   int      `json:"total"`
}

func (c *Cached) Find(ctx context.Context, q Query) ([]Object, int, error) {
	if q.Type == "" {
		return c.next.Find(ctx, q)
	}

	key, ok := c.key(ctx, "find", q)
	if ok {
		var hit cachedList
		if c.load(ctx, key, &hit) {
			return hit.Objects, hit.Total, nil
		}
	}

	objs, total, err := c.next.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if ok {
		c.store(ctx, key, cachedList{Objects: objs, Total: total})
	}
	return objs, total, nil
}

func (c *Cached) FindOne(ctx context.Context, q Query) (*Object, error) {
	if q.Type == "" {
		return c.next.FindOne(ctx, q)
	}

	key, ok := c.key(ctx, "one", q)
	if ok {
		var hit Object
		if c.load(ctx, key, &hit) {
			return &hit, nil
		}
	}

	obj, err := c.next.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	if ok {
		c.store(ctx, key, obj)
	}
	return obj, nil
}

func (c *Cached) InsertOne(ctx context.Context, in InsertInput) (*Object, error) {
	obj, err := c.next.InsertOne(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, obj.Type)
	return obj, nil
}

func (c *Cached) UpdateOne(ctx context.Context, id string, in UpdateInput) (*Object, error) {
	obj, err := c.next.UpdateOne(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, obj.Type)
	return obj, nil
}

func (c *Cached) DeleteOne(ctx context.Context, id string) error {
	var typ string
	if obj, err := c.next.FindOne(ctx, Query{ID: id, Props: []string{"id", "type"}}); err == nil {
		typ = obj.Type
	}
	if err := c.next.DeleteOne(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, typ)
	return nil
}

func (c *Cached) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	return c.next.Ping(ctx)
}

// key builds the cache key for q. It reports false when Redis is
// unavailable, in which case the caller goes straight to the store.
func (c *Cached) key(ctx context.Context, op string, q Query) (string, bool) {
	types := []string{q.Type}
	if q.Depth > 0 {
		targets := c.relations.Targets(q.Type)
		slices.Sort(targets)
		types = append(types, slices.Compact(targets)...)
	}

	gens := make([]string, 0, len(types))
	for _, t := range types {
		gen, err := c.rdb.Get(ctx, c.genKey(t)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return "", false
		}
		gens = append(gens, t+"@"+strconv.FormatInt(gen, 10))
	}

	raw, err := json.Marshal(q)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(raw)
	return c.prefix + op + ":" + strings.Join(gens, ",") + ":" + hex.EncodeToString(sum[:16]), true
}

func (c *Cached) genKey(t string) string {
	return c.prefix + "gen:" + t
}

func (c *Cached) load(ctx context.Context, key string, v any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// invalidate bumps the generation of t. Depth reads of other types include
// the generation of t in their key, so they miss too.
func (c *Cached) invalidate(ctx context.Context, t string) {
	if t == "" {
		return
	}
	_ = c.rdb.Incr(ctx, c.genKey(t)).Err()
}
