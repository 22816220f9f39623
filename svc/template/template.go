package template

import (
	"strings"
	"time"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

// ObjectType is the CMS type templates are stored under.
const ObjectType = "email-templates"

type Category string

const (
	CategoryNewsletter    Category = "newsletter"
	CategoryPromotion     Category = "promotion"
	CategoryWelcome       Category = "welcome"
	CategoryTransactional Category = "transactional"
	CategoryAnnouncement  Category = "announcement"
)

var categoryLabels = map[string]string{
	string(CategoryNewsletter):    "Newsletter",
	string(CategoryPromotion):     "Promotional",
	string(CategoryWelcome):       "Welcome Series",
	string(CategoryTransactional): "Transactional",
	string(CategoryAnnouncement):  "Announcement",
}

func Categories() []string {
	return []string{
		string(CategoryNewsletter),
		string(CategoryPromotion),
		string(CategoryWelcome),
		string(CategoryTransactional),
		string(CategoryAnnouncement),
	}
}

// CategoryLabel returns the display label for a category key.
func CategoryLabel(key string) string {
	return cms.NewSelect(key, categoryLabels).Value
}

type Template struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Metadata   Metadata  `json:"metadata"`
}

type Metadata struct {
	TemplateName        string     `json:"template_name"`
	SubjectLine         string     `json:"subject_line"`
	HTMLContent         string     `json:"html_content"`
	TemplateCategory    cms.Select `json:"template_category"`
	TemplateDescription string     `json:"template_description"`
	PreviewImage        *Image     `json:"preview_image,omitempty"`
}

// Image is a file metafield as the CMS returns it.
type Image struct {
	URL      string `json:"url"`
	ImgixURL string `json:"imgix_url,omitempty"`
}

func (t Template) Subject() string { return t.Metadata.SubjectLine }
func (t Template) HTML() string    { return t.Metadata.HTMLContent }

// FromObject decodes a stored template. Campaign reads use it for the
// resolved email_template relation.
func FromObject(o cms.Object) (Template, error) {
	t := Template{
		ID:         o.ID,
		Slug:       o.Slug,
		Title:      o.Title,
		CreatedAt:  o.CreatedAt,
		ModifiedAt: o.ModifiedAt,
	}
	if err := o.DecodeMetadata(&t.Metadata); err != nil {
		return Template{}, err
	}
	if c := t.Metadata.TemplateCategory; c.Value == "" && c.Key != "" {
		t.Metadata.TemplateCategory = cms.NewSelect(c.Key, categoryLabels)
	}
	return t, nil
}

// Input is the writable part of a template.
type Input struct {
	TemplateName        string `json:"template_name"`
	SubjectLine         string `json:"subject_line"`
	HTMLContent         string `json:"html_content"`
	TemplateCategory    string `json:"template_category"`
	TemplateDescription string `json:"template_description"`
}

func (in *Input) Normalize() {
	in.TemplateName = strings.TrimSpace(in.TemplateName)
	in.SubjectLine = strings.TrimSpace(in.SubjectLine)
	in.TemplateCategory = strings.ToLower(strings.TrimSpace(in.TemplateCategory))
	in.TemplateDescription = strings.TrimSpace(in.TemplateDescription)
	if in.TemplateCategory == "" {
		in.TemplateCategory = string(CategoryNewsletter)
	}
}

func (in Input) Validate() error {
	return validator.Apply(
		validator.WithMessage(validator.RequiredString("template_name", in.TemplateName), "Template name is required"),
		validator.WithMessage(validator.RequiredString("subject_line", in.SubjectLine), "Subject line is required"),
		validator.WithMessage(validator.RequiredString("html_content", in.HTMLContent), "HTML content is required"),
		validator.MaxLenString("template_name", in.TemplateName, 255),
		validator.MaxLenString("subject_line", in.SubjectLine, 998),
		validator.InListString("template_category", in.TemplateCategory, Categories()),
	)
}

func (in Input) metadata() map[string]any {
	return map[string]any{
		"template_name":        in.TemplateName,
		"subject_line":         in.SubjectLine,
		"html_content":         in.HTMLContent,
		"template_category":    in.TemplateCategory,
		"template_description": in.TemplateDescription,
	}
}
