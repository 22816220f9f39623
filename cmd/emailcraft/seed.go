package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/emailcraft/svc/campaign"
	"github.com/dmitrymomot/emailcraft/svc/contact"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

//go:embed seed.yaml
var defaultFixtures []byte

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample contacts, templates and campaigns into the CMS",
	Long: `Creates the templates, contacts and campaigns described in a YAML file.
Without --file a built-in sample set is used. Existing objects are not
checked, so running seed twice creates duplicates.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		src := io.Reader(bytes.NewReader(defaultFixtures))
		if seedFile != "" {
			f, err := os.Open(seedFile)
			if err != nil {
				return err
			}
			defer f.Close()
			src = f
		}
		fx, err := loadFixtures(src)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			res, err := fx.apply(ctx, a.contacts, a.templates, a.campaigns)
			if err != nil {
				return err
			}
			a.log.InfoContext(ctx, "seed complete",
				slog.Int("templates", res.Templates),
				slog.Int("contacts", res.Contacts),
				slog.Int("campaigns", res.Campaigns),
			)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture file")
}

type fixtures struct {
	Templates []templateFixture `yaml:"templates"`
	Contacts  []contactFixture  `yaml:"contacts"`
	Campaigns []campaignFixture `yaml:"campaigns"`
}

type templateFixture struct {
	// Key is how campaigns in the same file refer to the template.
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Subject     string `yaml:"subject"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	HTML        string `yaml:"html"`
}

type contactFixture struct {
	Email     string   `yaml:"email"`
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Status    string   `yaml:"status"`
	Tags      []string `yaml:"tags"`
	Notes     string   `yaml:"notes"`
}

type campaignFixture struct {
	Name       string   `yaml:"name"`
	Template   string   `yaml:"template"`
	TargetTags []string `yaml:"target_tags"`
	Notes      string   `yaml:"notes"`
}

type seedResult struct {
	Templates int
	Contacts  int
	Campaigns int
}

func loadFixtures(r io.Reader) (*fixtures, error) {
	var fx fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for _, c := range fx.Campaigns {
		if !fx.hasTemplate(c.Template) {
			return nil, fmt.Errorf("campaign %q refers to unknown template %q", c.Name, c.Template)
		}
	}
	return &fx, nil
}

func (fx *fixtures) hasTemplate(key string) bool {
	for _, t := range fx.Templates {
		if t.Key == key {
			return true
		}
	}
	return false
}

// apply creates templates first so campaigns can reference their ids.
func (fx *fixtures) apply(ctx context.Context, contacts *contact.Service, templates *template.Service, campaigns *campaign.Service) (seedResult, error) {
	var res seedResult
	ids := make(map[string]string, len(fx.Templates))

	for _, t := range fx.Templates {
		created, err := templates.Create(ctx, template.Input{
			TemplateName:        t.Name,
			SubjectLine:         t.Subject,
			HTMLContent:         t.HTML,
			TemplateCategory:    t.Category,
			TemplateDescription: t.Description,
		})
		if err != nil {
			return res, fmt.Errorf("template %q: %w", t.Key, err)
		}
		ids[t.Key] = created.ID
		res.Templates++
	}

	for _, c := range fx.Contacts {
		if _, err := contacts.Create(ctx, contact.Input{
			Email:              c.Email,
			FirstName:          c.FirstName,
			LastName:           c.LastName,
			SubscriptionStatus: c.Status,
			Tags:               c.Tags,
			Notes:              c.Notes,
		}); err != nil {
			return res, fmt.Errorf("contact %q: %w", c.Email, err)
		}
		res.Contacts++
	}

	for _, c := range fx.Campaigns {
		if _, err := campaigns.Create(ctx, campaign.Input{
			CampaignName:  c.Name,
			EmailTemplate: ids[c.Template],
			TargetTags:    c.TargetTags,
			CampaignNotes: c.Notes,
		}); err != nil {
			return res, fmt.Errorf("campaign %q: %w", c.Name, err)
		}
		res.Campaigns++
	}
	return res, nil
}
