package services

import (
	"context"
	"strings"
	"time"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
	"plastikhb/pkg/metrics"
)

const (
	trafficWindowDays = 30
	dayLayout         = "2006-01-02"
)

// Locator resolves an IP address to a city. ok is false when no city could be determined.
type Locator interface {
	Locate(ip string) (city string, ok bool)
}

// AnalyticInput describes one visitor event.
type AnalyticInput struct {
	Type      models.AnalyticType `json:"type" validate:"required,oneof=PAGE PRODUCT BUTTON"`
	TargetID  string              `json:"target_id" validate:"max=100"`
	URL       string              `json:"url" validate:"required,max=500"`
	IPAddress string              `json:"-"`
}

// DailyTraffic is one entry of the traffic timeline.
type DailyTraffic struct {
	Visitors      int `json:"pengunjung"`
	PageViews     int `json:"pageViews"`
	ProductClicks int `json:"productClicks"`
}

// ProductClicks aggregates the clicks on one product.
type ProductClicks struct {
	Clicks      int       `json:"clicks"`
	LastClicked time.Time `json:"lastClicked"`
}

// TrafficReport summarises the last 30 days of visitor events.
type TrafficReport struct {
	Visitors         int                      `json:"pengunjung"`
	PageViews        int                      `json:"pageViews"`
	ProductClicks    int                      `json:"productClicks"`
	ClicksPerProduct map[string]ProductClicks `json:"clicksPerProduct"`
	Timeline         map[string]DailyTraffic  `json:"timeline"`
}

// AnalyticsService records and aggregates visitor events.
type AnalyticsService struct {
	events  repositories.AnalyticRepository
	locator Locator
}

// NewAnalyticsService creates a new AnalyticsService. locator may be nil, in which case every
// event is stored with an unknown location.
func NewAnalyticsService(events repositories.AnalyticRepository, locator Locator) *AnalyticsService {
	return &AnalyticsService{events: events, locator: locator}
}

// RecordEvent stores a visitor event, enriched with the visitor's city when it can be found.
func (s *AnalyticsService) RecordEvent(ctx context.Context, in AnalyticInput) (*models.Analytic, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, validationError("url is required")
	}

	event := &models.Analytic{
		Type:      in.Type,
		TargetID:  in.TargetID,
		URL:       in.URL,
		IPAddress: in.IPAddress,
		Location:  s.locate(in.IPAddress),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, persistenceError("failed to record analytics event", err)
	}
	metrics.AnalyticsEvents.WithLabelValues(string(in.Type)).Inc()
	return event, nil
}

func (s *AnalyticsService) locate(ip string) string {
	if s.locator == nil || ip == "" {
		metrics.GeoLookups.WithLabelValues("unknown").Inc()
		return models.UnknownLocation
	}
	city, ok := s.locator.Locate(ip)
	if !ok || strings.TrimSpace(city) == "" {
		metrics.GeoLookups.WithLabelValues("unknown").Inc()
		return models.UnknownLocation
	}
	metrics.GeoLookups.WithLabelValues("resolved").Inc()
	return city
}

// GetTrafficAnalytics aggregates the events of the 30 UTC days ending with now's day.
func (s *AnalyticsService) GetTrafficAnalytics(ctx context.Context, now time.Time) (*TrafficReport, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(trafficWindowDays - 1))
	to := today.AddDate(0, 0, 1)

	events, err := s.events.ListBetween(ctx, from, to)
	if err != nil {
		return nil, persistenceError("failed to load analytics", err)
	}

	report := &TrafficReport{
		ClicksPerProduct: make(map[string]ProductClicks),
		Timeline:         make(map[string]DailyTraffic, trafficWindowDays),
	}
	for i := 0; i < trafficWindowDays; i++ {
		report.Timeline[from.AddDate(0, 0, i).Format(dayLayout)] = DailyTraffic{}
	}

	visitors := make(map[string]struct{})
	dailyVisitors := make(map[string]map[string]struct{})
	for _, e := range events {
		day := e.CreatedAt.UTC().Format(dayLayout)
		entry, inWindow := report.Timeline[day]
		if !inWindow {
			continue
		}

		visitors[e.IPAddress] = struct{}{}
		if dailyVisitors[day] == nil {
			dailyVisitors[day] = make(map[string]struct{})
		}
		dailyVisitors[day][e.IPAddress] = struct{}{}

		switch e.Type {
		case models.AnalyticPage:
			report.PageViews++
			entry.PageViews++
		case models.AnalyticProduct:
			report.ProductClicks++
			entry.ProductClicks++
			if e.TargetID != "" {
				pc := report.ClicksPerProduct[e.TargetID]
				pc.Clicks++
				if e.CreatedAt.After(pc.LastClicked) {
					pc.LastClicked = e.CreatedAt
				}
				report.ClicksPerProduct[e.TargetID] = pc
			}
		}
		entry.Visitors = len(dailyVisitors[day])
		report.Timeline[day] = entry
	}
	report.Visitors = len(visitors)
	return report, nil
}
