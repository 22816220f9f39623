package contact

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

var (
	ErrNotFound      = errors.New("contact not found")
	ErrStoreFailure  = errors.New("contact store operation failed")
	ErrInvalidObject = errors.New("stored contact is malformed")
)

var listProps = []string{"id", "title", "slug", "metadata", "created_at", "modified_at"}

// Service reads and writes contacts in the CMS.
type Service struct {
	store cms.Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used for the default subscribe date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store cms.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every contact, newest first, with the total count.
func (s *Service) List(ctx context.Context) ([]Contact, int, error) {
	return s.find(ctx, cms.Query{Type: ObjectType, Props: listProps})
}

// ListSubscribed returns contacts whose subscription status is subscribed.
func (s *Service) ListSubscribed(ctx context.Context) ([]Contact, error) {
	out, _, err := s.find(ctx, cms.Query{
		Type:   ObjectType,
		Props:  listProps,
		Filter: map[string]any{"metadata.subscription_status": string(StatusSubscribed)},
	})
	return out, err
}

// ListSubscribedWithTags returns subscribed contacts carrying any of tags.
func (s *Service) ListSubscribedWithTags(ctx context.Context, tags []string) ([]Contact, error) {
	if len(tags) == 0 {
		return s.ListSubscribed(ctx)
	}
	out, _, err := s.find(ctx, cms.Query{
		Type:  ObjectType,
		Props: listProps,
		Filter: map[string]any{
			"metadata.subscription_status": string(StatusSubscribed),
			"metadata.tags":                tags,
		},
	})
	return out, err
}

func (s *Service) GetByID(ctx context.Context, id string) (*Contact, error) {
	obj, err := s.store.FindOne(ctx, cms.Query{Type: ObjectType, ID: id, Props: listProps})
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	c, err := fromObject(*obj)
	if err != nil {
		return nil, errors.Join(ErrInvalidObject, err)
	}
	return &c, nil
}

// GetByIDs returns the contacts among ids that exist. Unknown ids are
// skipped.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]Contact, error) {
	if len(ids) == 0 {
		return []Contact{}, nil
	}
	out, _, err := s.find(ctx, cms.Query{
		Type:   ObjectType,
		Props:  listProps,
		Filter: map[string]any{"id": ids},
	})
	return out, err
}

// Create stores a new contact. Status defaults to subscribed and the
// subscribe date to today.
func (s *Service) Create(ctx context.Context, in Input) (*Contact, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.SubscriptionStatus == "" {
		in.SubscriptionStatus = string(StatusSubscribed)
	}
	if in.DateSubscribed == "" {
		in.DateSubscribed = s.now().UTC().Format(time.DateOnly)
	}

	obj, err := s.store.InsertOne(ctx, cms.InsertInput{
		Title:    in.Email,
		Type:     ObjectType,
		Status:   cms.StatusPublished,
		Metadata: in.metadata(),
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	c, err := fromObject(*obj)
	if err != nil {
		return nil, errors.Join(ErrInvalidObject, err)
	}
	return &c, nil
}

// Update replaces the contact's fields; the title follows the email. An
// empty status or subscribe date keeps the stored value.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Contact, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	title := in.Email
	obj, err := s.store.UpdateOne(ctx, id, cms.UpdateInput{Title: &title, Metadata: in.metadata()})
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	c, err := fromObject(*obj)
	if err != nil {
		return nil, errors.Join(ErrInvalidObject, err)
	}
	return &c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return errors.Join(ErrNotFound, err)
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// Count returns the number of stored contacts.
func (s *Service) Count(ctx context.Context) (int, error) {
	_, total, err := s.store.Find(ctx, cms.Query{Type: ObjectType, Props: []string{"id"}, Limit: 1})
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return total, nil
}

func (s *Service) find(ctx context.Context, q cms.Query) ([]Contact, int, error) {
	objs, total, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, 0, errors.Join(ErrStoreFailure, err)
	}
	out := make([]Contact, 0, len(objs))
	for _, o := range objs {
		c, err := fromObject(o)
		if err != nil {
			return nil, 0, errors.Join(ErrInvalidObject, err)
		}
		out = append(out, c)
	}
	return out, total, nil
}
