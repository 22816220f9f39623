package cms

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Deps are the connections a backend may need. Unused ones may be nil.
type Deps struct {
	Mongo     *mongo.Database
	Redis     redis.UniversalClient
	Relations Relations
}

// New builds the Store selected by cfg.Backend, wrapped in the Redis cache
// when cfg.CacheTTL is positive and a Redis client is given.
func New(ctx context.Context, cfg Config, deps Deps) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendCosmic:
		store, err = NewCosmicClient(cfg, WithCosmicRelations(deps.Relations))
	case BackendMongo:
		if deps.Mongo == nil {
			return nil, errors.Join(ErrNotConfigured, errors.New("mongo database is required"))
		}
		ms := NewMongoStore(deps.Mongo, cfg.MongoCollection, WithMongoRelations(deps.Relations))
		err = ms.EnsureIndexes(ctx)
		store = ms
	case BackendMemory:
		store = NewMemoryStore(WithMemoryRelations(deps.Relations))
	default:
		return nil, ErrUnknownBackend
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL > 0 && deps.Redis != nil {
		store = NewCached(store, deps.Redis, cfg.CacheTTL, WithCacheRelations(deps.Relations))
	}
	return store, nil
}
