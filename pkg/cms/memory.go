package cms

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/emailcraft/pkg/slug"
)

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]Object
	relations Relations
	now       func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryRelations(r Relations) MemoryOption {
	return func(s *MemoryStore) { s.relations = r }
}

// WithMemoryClock overrides the timestamp source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		objects: make(map[string]Object),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Find(ctx context.Context, q Query) ([]Object, int, error) {
	if err := q.validate(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	var found []Object
	for _, o := range s.objects {
		if q.Type != "" && o.Type != q.Type {
			continue
		}
		if q.ID != "" && o.ID != q.ID {
			continue
		}
		if !matches(o, q.Filter) {
			continue
		}
		found = append(found, cloneObject(o))
	}
	s.mu.RUnlock()

	sortObjects(found, q.Sort)
	total := len(found)
	found = page(found, q.Skip, q.Limit)

	for i := range found {
		if q.Depth > 0 {
			if err := resolveRelations(ctx, &found[i], s.relations, s.get); err != nil {
				return nil, 0, err
			}
		}
		found[i] = applyProps(found[i], q.Props)
	}
	return found, total, nil
}

func (s *MemoryStore) FindOne(ctx context.Context, q Query) (*Object, error) {
	if q.ID == "" {
		objs, _, err := s.Find(ctx, Query{Type: q.Type, Filter: q.Filter, Props: q.Props, Depth: q.Depth, Sort: q.Sort, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(objs) == 0 {
			return nil, ErrNotFound
		}
		return &objs[0], nil
	}

	o, err := s.get(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if q.Type != "" && o.Type != q.Type {
		return nil, ErrNotFound
	}
	if !matches(*o, q.Filter) {
		return nil, ErrNotFound
	}
	if q.Depth > 0 {
		if err := resolveRelations(ctx, o, s.relations, s.get); err != nil {
			return nil, err
		}
	}
	out := applyProps(*o, q.Props)
	return &out, nil
}

func (s *MemoryStore) InsertOne(_ context.Context, in InsertInput) (*Object, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := Object{
		ID:         uuid.NewString(),
		Slug:       in.Slug,
		Title:      strings.TrimSpace(in.Title),
		Type:       in.Type,
		Status:     in.Status,
		CreatedAt:  now,
		ModifiedAt: now,
		Metadata:   cloneMap(in.Metadata),
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

	s.mu.Lock()
	s.objects[o.ID] = o
	s.mu.Unlock()

	out := cloneObject(o)
	return &out, nil
}

func (s *MemoryStore) UpdateOne(_ context.Context, id string, in UpdateInput) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		o.Title = title
	}
	o.Metadata = mergeMetadata(cloneMap(o.Metadata), cloneMap(in.Metadata))
	o.ModifiedAt = s.now().UTC()
	s.objects[id] = o

	out := cloneObject(o)
	return &out, nil
}

func (s *MemoryStore) DeleteOne(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[id]; !ok {
		return ErrNotFound
	}
	delete(s.objects, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) get(_ context.Context, id string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneObject(o)
	return &out, nil
}
