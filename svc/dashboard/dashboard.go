package dashboard

import (
	"context"
	"errors"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/emailcraft/svc/campaign"
)

// RecentCampaigns is how many campaigns the overview lists.
const RecentCampaigns = 5

var ErrStatsUnavailable = errors.New("dashboard stats unavailable")

type (
	ContactCounter interface {
		Count(ctx context.Context) (int, error)
	}
	TemplateCounter interface {
		Count(ctx context.Context) (int, error)
	}
	CampaignReader interface {
		List(ctx context.Context) ([]campaign.Campaign, int, error)
		CountByStatus(ctx context.Context, status campaign.Status) (int, error)
	}
)

type Stats struct {
	TotalContacts   int                 `json:"totalContacts"`
	ActiveCampaigns int                 `json:"activeCampaigns"`
	TotalTemplates  int                 `json:"totalTemplates"`
	AvgOpenRate     int                 `json:"avgOpenRate"`
	RecentCampaigns []campaign.Campaign `json:"recentCampaigns"`
}

type Service struct {
	contacts  ContactCounter
	templates TemplateCounter
	campaigns CampaignReader
}

func NewService(contacts ContactCounter, templates TemplateCounter, campaigns CampaignReader) *Service {
	return &Service{contacts: contacts, templates: templates, campaigns: campaigns}
}

// Stats gathers the overview figures concurrently. Active campaigns are the
// ones currently sending; the open rate is the mean over all campaigns as a
// rounded percentage.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	var all []campaign.Campaign

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.contacts.Count(gctx)
		out.TotalContacts = n
		return err
	})
	g.Go(func() error {
		n, err := s.templates.Count(gctx)
		out.TotalTemplates = n
		return err
	})
	g.Go(func() error {
		n, err := s.campaigns.CountByStatus(gctx, campaign.StatusSending)
		out.ActiveCampaigns = n
		return err
	})
	g.Go(func() error {
		var err error
		all, _, err = s.campaigns.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Join(ErrStatsUnavailable, err)
	}

	out.AvgOpenRate = averageOpenRate(all)
	out.RecentCampaigns = all[:min(RecentCampaigns, len(all))]
	return &out, nil
}

func averageOpenRate(cs []campaign.Campaign) int {
	if len(cs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cs {
		sum += c.Metadata.CampaignStats.OpenRate
	}
	return int(math.Round(sum / float64(len(cs)) * 100))
}
