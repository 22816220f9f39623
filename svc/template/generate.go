package template

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/emailcraft/pkg/ai"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

// Output caps for template drafting. A full template from scratch needs a
// much larger budget than an edit.
const (
	GenerateMaxTokens = 64000
	EditMaxTokens     = 12000
)

var ErrGenerationFailed = errors.New("failed to generate email template")

// EditInput asks for changes to an existing template body.
type EditInput struct {
	Prompt      string   `json:"prompt"`
	CurrentHTML string   `json:"currentHtml"`
	Images      []string `json:"images"`
}

func (in EditInput) Validate() error {
	return validator.Apply(
		validator.WithMessage(validator.RequiredString("prompt", in.Prompt), "Edit prompt is required and must be a string"),
		validator.WithMessage(validator.RequiredString("currentHtml", in.CurrentHTML), "Current HTML content is required"),
	)
}

// Generate drafts a complete HTML email from a free-form description.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", validator.NewError("prompt", "Prompt is required and must be a string")
	}
	return s.generate(ctx, generatePrompt(prompt), GenerateMaxTokens)
}

// Edit rewrites CurrentHTML following Prompt, placing any uploaded images.
func (s *Service) Edit(ctx context.Context, in EditInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	return s.generate(ctx, editPrompt(in), EditMaxTokens)
}

func (s *Service) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	res, err := s.gen.GenerateText(ctx, prompt, maxTokens)
	if err != nil {
		return "", errors.Join(ErrGenerationFailed, err)
	}
	html := StripCodeFences(res.Text)
	if html == "" {
		return "", errors.Join(ErrGenerationFailed, ai.ErrEmptyResponse)
	}
	return html, nil
}

func generatePrompt(request string) string {
	return fmt.Sprintf(`Create a professional HTML email template with the following requirements: %s.
Use inline CSS styles and a proper email HTML structure with a header, a main content area and a footer.
The template must be responsive and render correctly in common email clients. Follow modern design principles.
Return only the HTML code without any explanatory text. No backticks.`, strings.TrimSpace(request))
}

func editPrompt(in EditInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are editing an existing HTML email template. Here is the current HTML:\n\n%s\n\n", in.CurrentHTML)
	fmt.Fprintf(&b, "Please make the following changes: %s\n\n", strings.TrimSpace(in.Prompt))
	b.WriteString("Keep the existing structure and styling where possible and only make the requested modifications.\n")
	b.WriteString("The template must stay compatible with email clients, using inline CSS styles.\n")
	b.WriteString("Keep it responsive and consistent with professional email design standards.")

	images := make([]string, 0, len(in.Images))
	for _, u := range in.Images {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	if len(images) > 0 {
		b.WriteString("\n\nInclude these uploaded images in the modifications:\n")
		for i, u := range images {
			fmt.Fprintf(&b, "%d. %s\n", i+1, u)
		}
		b.WriteString("Use img tags with these URLs, styled for email clients with a max-width and responsive sizing.")
	}

	b.WriteString("\n\nReturn only the complete updated HTML code without any explanatory text. No backticks or code block formatting.")
	return b.String()
}

// StripCodeFences removes a surrounding markdown code fence, with or
// without a language tag, and trims whitespace.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "<> ") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
