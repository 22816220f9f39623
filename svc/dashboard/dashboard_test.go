package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
	"github.com/dmitrymomot/emailcraft/svc/contact"
	"github.com/dmitrymomot/emailcraft/svc/dashboard"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

func tickingClock() func() time.Time {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestService_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := cms.NewMemoryStore(cms.WithMemoryRelations(campaign.Relations), cms.WithMemoryClock(tickingClock()))
	contacts := contact.NewService(store)
	templates := template.NewService(store, nil)
	campaigns := campaign.NewService(store)

	for i := range 3 {
		_, err := contacts.Create(ctx, contact.Input{Email: fmt.Sprintf("c%d@example.com", i)})
		require.NoError(t, err)
	}
	tpl, err := templates.Create(ctx, template.Input{TemplateName: "T", SubjectLine: "S", HTMLContent: "<p/>"})
	require.NoError(t, err)

	rates := []float64{0.2, 0.3, 0, 0.5, 0.1, 0.3}
	var names []string
	for i, rate := range rates {
		status := "sent"
		if i%2 == 0 {
			status = "sending"
		}
		name := fmt.Sprintf("Campaign %d", i)
		names = append(names, name)
		_, err := campaigns.Create(ctx, campaign.Input{
			CampaignName:   name,
			EmailTemplate:  tpl.ID,
			CampaignStatus: status,
			CampaignStats:  &campaign.Stats{OpenRate: rate},
		})
		require.NoError(t, err)
	}

	stats, err := dashboard.NewService(contacts, templates, campaigns).Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.TotalTemplates)
	assert.Equal(t, 3, stats.ActiveCampaigns)
	// mean open rate is 0.2333
	assert.Equal(t, 23, stats.AvgOpenRate)
	require.Len(t, stats.RecentCampaigns, dashboard.RecentCampaigns)
	assert.Equal(t, names[5], stats.RecentCampaigns[0].Metadata.CampaignName)
	assert.Equal(t, names[1], stats.RecentCampaigns[4].Metadata.CampaignName)
}

func TestService_Stats_Empty(t *testing.T) {
	t.Parallel()

	store := cms.NewMemoryStore()
	stats, err := dashboard.NewService(
		contact.NewService(store),
		template.NewService(store, nil),
		campaign.NewService(store),
	).Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.AvgOpenRate)
	assert.Empty(t, stats.RecentCampaigns)
}

type failingCounter struct{}

func (failingCounter) Count(context.Context) (int, error) { return 0, errors.New("down") }

func TestService_Stats_Error(t *testing.T) {
	t.Parallel()

	store := cms.NewMemoryStore()
	_, err := dashboard.NewService(failingCounter{}, template.NewService(store, nil), campaign.NewService(store)).
		Stats(context.Background())
	assert.ErrorIs(t, err, dashboard.ErrStatsUnavailable)
}
