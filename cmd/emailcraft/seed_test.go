package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
	"github.com/dmitrymomot/emailcraft/svc/contact"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

func TestDefaultFixtures(t *testing.T) {
	t.Parallel()

	fx, err := loadFixtures(bytes.NewReader(defaultFixtures))
	require.NoError(t, err)

	store := cms.NewMemoryStore(cms.WithMemoryRelations(campaign.Relations))
	contacts := contact.NewService(store)
	campaigns := campaign.NewService(store)
	ctx := context.Background()

	res, err := fx.apply(ctx, contacts, template.NewService(store, nil), campaigns)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Templates: 2, Contacts: 5, Campaigns: 2}, res)

	subscribed, err := contacts.ListSubscribed(ctx)
	require.NoError(t, err)
	assert.Len(t, subscribed, 3)

	list, _, err := campaigns.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, c := range list {
		require.NotNil(t, c.Template(), c.Metadata.CampaignName)
		assert.Equal(t, campaign.StatusDraft, c.Status())
	}
}

func TestLoadFixtures_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown template": "campaigns:\n  - name: X\n    template: missing\n",
		"unknown field":    "contacts:\n  - email: a@example.com\n    phone: 123\n",
		"not yaml":         "templates: [",
	}
	for name, src := range tests {
		_, err := loadFixtures(strings.NewReader(src))
		assert.Error(t, err, name)
	}
}

func TestFixtures_ApplyStopsOnInvalidContact(t *testing.T) {
	t.Parallel()

	fx, err := loadFixtures(strings.NewReader("contacts:\n  - email: not-an-email\n"))
	require.NoError(t, err)

	store := cms.NewMemoryStore()
	res, err := fx.apply(context.Background(), contact.NewService(store), template.NewService(store, nil), campaign.NewService(store))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-email")
	assert.Zero(t, res.Contacts)
}
