package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

var (
	ErrNotFound      = errors.New("campaign not found")
	ErrStoreFailure  = errors.New("campaign store operation failed")
	ErrInvalidObject = errors.New("stored campaign is malformed")
)

var readProps = []string{"id", "title", "slug", "metadata", "created_at", "modified_at"}

// Service reads and writes campaigns in the CMS.
type Service struct {
	store cms.Store
}

func NewService(store cms.Store) *Service {
	return &Service{store: store}
}

// List returns every campaign with its template resolved, newest first.
func (s *Service) List(ctx context.Context) ([]Campaign, int, error) {
	return s.find(ctx, cms.Query{Type: ObjectType, Props: readProps, Depth: 1, Sort: "-created_at"})
}

// GetByID returns the campaign with its template resolved.
func (s *Service) GetByID(ctx context.Context, id string) (*Campaign, error) {
	return s.get(ctx, id, 1)
}

func (s *Service) Create(ctx context.Context, in Input) (*Campaign, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkTemplate(ctx, in.EmailTemplate); err != nil {
		return nil, err
	}
	if in.CampaignStatus == "" {
		in.CampaignStatus = string(StatusDraft)
	}
	if in.CampaignStats == nil {
		in.CampaignStats = &Stats{}
	}

	obj, err := s.store.InsertOne(ctx, cms.InsertInput{
		Title:    in.CampaignName,
		Type:     ObjectType,
		Status:   cms.StatusPublished,
		Metadata: in.metadata(),
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return s.get(ctx, obj.ID, 1)
}

// Update replaces the campaign fields; the title follows the name. An empty
// status keeps the stored one and nil stats keep the stored figures.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Campaign, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkTemplate(ctx, in.EmailTemplate); err != nil {
		return nil, err
	}
	title := in.CampaignName
	if _, err := s.store.UpdateOne(ctx, id, cms.UpdateInput{Title: &title, Metadata: in.metadata()}); err != nil {
		return nil, s.wrap(err)
	}
	return s.get(ctx, id, 1)
}

// Patch applies a raw {title, metadata} update after schema validation.
func (s *Service) Patch(ctx context.Context, id string, raw []byte) (*Campaign, error) {
	p, err := ParsePatch(raw)
	if err != nil {
		return nil, err
	}
	if tpl, ok := p.Metadata["email_template"].(string); ok {
		if err := s.checkTemplate(ctx, tpl); err != nil {
			return nil, err
		}
	}
	if _, err := s.store.UpdateOne(ctx, id, cms.UpdateInput{Title: p.Title, Metadata: p.Metadata}); err != nil {
		return nil, s.wrap(err)
	}
	return s.get(ctx, id, 1)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOne(ctx, id); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Duplicate copies a campaign as a new draft with zeroed stats. An empty
// name gives "<original name> (Copy)".
func (s *Service) Duplicate(ctx context.Context, id, name string) (*Campaign, error) {
	src, err := s.get(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = src.Metadata.CampaignName + " (Copy)"
	}

	in := Input{
		CampaignName:   name,
		EmailTemplate:  src.Metadata.EmailTemplate.ID,
		CampaignStatus: string(StatusDraft),
		TargetTags:     src.Metadata.TargetTags,
		CampaignNotes:  "Duplicated from: " + src.Metadata.CampaignName,
		CampaignStats:  &Stats{},
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	obj, err := s.store.InsertOne(ctx, cms.InsertInput{
		Title:    in.CampaignName,
		Type:     ObjectType,
		Status:   cms.StatusPublished,
		Metadata: in.metadata(),
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return s.get(ctx, obj.ID, 1)
}

// CountByStatus returns how many campaigns are in status.
func (s *Service) CountByStatus(ctx context.Context, status Status) (int, error) {
	_, total, err := s.store.Find(ctx, cms.Query{
		Type:   ObjectType,
		Props:  []string{"id"},
		Filter: map[string]any{"metadata.campaign_status": string(status)},
		Limit:  1,
	})
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return total, nil
}

// setStatus writes the status together with any extra metadata.
func (s *Service) setStatus(ctx context.Context, id string, status Status, extra map[string]any) error {
	md := map[string]any{"campaign_status": string(status)}
	for k, v := range extra {
		md[k] = v
	}
	if _, err := s.store.UpdateOne(ctx, id, cms.UpdateInput{Metadata: md}); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Service) checkTemplate(ctx context.Context, id string) error {
	_, err := s.store.FindOne(ctx, cms.Query{Type: template.ObjectType, ID: id, Props: []string{"id"}})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cms.ErrNotFound):
		return validator.NewError("email_template", fmt.Sprintf("template %q does not exist", id))
	default:
		return errors.Join(ErrStoreFailure, err)
	}
}

func (s *Service) get(ctx context.Context, id string, depth int) (*Campaign, error) {
	obj, err := s.store.FindOne(ctx, cms.Query{Type: ObjectType, ID: id, Props: readProps, Depth: depth})
	if err != nil {
		return nil, s.wrap(err)
	}
	c, err := fromObject(*obj)
	if err != nil {
		return nil, errors.Join(ErrInvalidObject, err)
	}
	return &c, nil
}

func (s *Service) find(ctx context.Context, q cms.Query) ([]Campaign, int, error) {
	objs, total, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, 0, errors.Join(ErrStoreFailure, err)
	}
	out := make([]Campaign, 0, len(objs))
	for _, o := range objs {
		c, err := fromObject(o)
		if err != nil {
			return nil, 0, errors.Join(ErrInvalidObject, err)
		}
		out = append(out, c)
	}
	return out, total, nil
}

func (s *Service) wrap(err error) error {
	if errors.Is(err, cms.ErrNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	return errors.Join(ErrStoreFailure, err)
}
