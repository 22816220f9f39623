package template

import (
	"context"
	"errors"

	"github.com/dmitrymomot/emailcraft/pkg/ai"
	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

var (
	ErrNotFound      = errors.New("template not found")
	ErrStoreFailure  = errors.New("template store operation failed")
	ErrInvalidObject = errors.New("stored template is malformed")
)

var readProps = []string{"id", "title", "slug", "metadata", "created_at", "modified_at"}

// Service manages email templates and drafts their HTML with a text
// generator.
type Service struct {
	store cms.Store
	gen   ai.Generator
}

func NewService(store cms.Store, gen ai.Generator) *Service {
	return &Service{store: store, gen: gen}
}

func (s *Service) List(ctx context.Context) ([]Template, int, error) {
	objs, total, err := s.store.Find(ctx, cms.Query{Type: ObjectType, Props: readProps})
	if err != nil {
		return nil, 0, errors.Join(ErrStoreFailure, err)
	}
	out := make([]Template, 0, len(objs))
	for _, o := range objs {
		t, err := FromObject(o)
		if err != nil {
			return nil, 0, errors.Join(ErrInvalidObject, err)
		}
		out = append(out, t)
	}
	return out, total, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Template, error) {
	obj, err := s.store.FindOne(ctx, cms.Query{Type: ObjectType, ID: id, Props: readProps})
	if err != nil {
		return nil, s.wrap(err)
	}
	return decode(obj)
}

func (s *Service) Create(ctx context.Context, in Input) (*Template, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	obj, err := s.store.InsertOne(ctx, cms.InsertInput{
		Title:    in.TemplateName,
		Type:     ObjectType,
		Status:   cms.StatusPublished,
		Metadata: in.metadata(),
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return decode(obj)
}

// Update replaces the template fields; the title follows the name.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Template, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	title := in.TemplateName
	obj, err := s.store.UpdateOne(ctx, id, cms.UpdateInput{Title: &title, Metadata: in.metadata()})
	if err != nil {
		return nil, s.wrap(err)
	}
	return decode(obj)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOne(ctx, id); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Count returns the number of stored templates.
func (s *Service) Count(ctx context.Context) (int, error) {
	_, total, err := s.store.Find(ctx, cms.Query{Type: ObjectType, Props: []string{"id"}, Limit: 1})
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return total, nil
}

func (s *Service) wrap(err error) error {
	if errors.Is(err, cms.ErrNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	return errors.Join(ErrStoreFailure, err)
}

func decode(obj *cms.Object) (*Template, error) {
	t, err := FromObject(*obj)
	if err != nil {
		return nil, errors.Join(ErrInvalidObject, err)
	}
	return &t, nil
}
