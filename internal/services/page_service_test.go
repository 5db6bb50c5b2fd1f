package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"plastikhb/internal/database"
	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
	"plastikhb/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPageService(t *testing.T) *services.PageService {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	return services.NewPageService(repositories.NewGORMPageRepository(db))
}

func TestPageService_CreateAndGetBySlug(t *testing.T) {
	svc := newPageService(t)
	ctx := context.Background()
	hidden := false

	_, err := svc.CreatePage(ctx, services.PageInput{
		Slug:  "beranda",
		Title: "Beranda",
		Sections: []services.SectionInput{
			{Type: models.SectionValues, Order: 2, Data: json.RawMessage(`{"items":[]}`)},
			{Type: models.SectionBanner, Order: 1, Data: json.RawMessage(`{"title":"Plastik"}`)},
			{Type: models.SectionAddress, Order: 3, Visible: &hidden},
		},
	})
	require.NoError(t, err)

	page, err := svc.GetPageBySlug(ctx, "beranda")
	require.NoError(t, err)
	require.Len(t, page.Sections, 3)
	assert.Equal(t, models.SectionBanner, page.Sections[0].Type)
	assert.Equal(t, models.SectionValues, page.Sections[1].Type)
	assert.True(t, page.Sections[0].Visible)
	assert.False(t, page.Sections[2].Visible)
	assert.JSONEq(t, `{}`, string(page.Sections[2].Data))

	_, err = svc.CreatePage(ctx, services.PageInput{Slug: "beranda"})
	assert.Equal(t, services.KindConflict, services.KindOf(err))

	_, err = svc.GetPageBySlug(ctx, "tidak-ada")
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	pages, err := svc.ListPages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestPageService_UpdateSection(t *testing.T) {
	svc := newPageService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, services.PageInput{
		Slug:     "tentang",
		Sections: []services.SectionInput{{Type: models.SectionHistory, Order: 1, Data: json.RawMessage(`{"year":1998}`)}},
	})
	require.NoError(t, err)
	id := page.Sections[0].ID

	hidden := false
	updated, err := svc.UpdateSection(ctx, id, services.SectionUpdate{Visible: &hidden})
	require.NoError(t, err)
	assert.False(t, updated.Visible)
	assert.JSONEq(t, `{"year":1998}`, string(updated.Data))

	updated, err = svc.UpdateSection(ctx, id, services.SectionUpdate{Data: json.RawMessage(`{"year":2001}`)})
	require.NoError(t, err)
	assert.False(t, updated.Visible)
	assert.JSONEq(t, `{"year":2001}`, string(updated.Data))

	_, err = svc.UpdateSection(ctx, id, services.SectionUpdate{})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
	_, err = svc.UpdateSection(ctx, id, services.SectionUpdate{Data: json.RawMessage(`{broken`)})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
	_, err = svc.UpdateSection(ctx, "missing", services.SectionUpdate{Visible: &hidden})
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}

func TestPageService_ContactInfo(t *testing.T) {
	svc := newPageService(t)
	ctx := context.Background()

	_, err := svc.GetContactInfo(ctx)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
	_, err = svc.UpdateContactInfo(ctx, json.RawMessage(`{"phone":"0812"}`))
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	_, err = svc.CreatePage(ctx, services.PageInput{
		Slug:     "kontak",
		Sections: []services.SectionInput{{Type: models.SectionAddress, Order: 1, Data: json.RawMessage(`{"phone":"021"}`)}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateContactInfo(ctx, nil)
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	section, err := svc.UpdateContactInfo(ctx, json.RawMessage(`{"phone":"0812"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":"0812"}`, string(section.Data))

	got, err := svc.GetContactInfo(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":"0812"}`, string(got.Data))
}

type fakeLocator struct {
	city string
	ok   bool
	ips  []string
}

func (l *fakeLocator) Locate(ip string) (string, bool) {
	l.ips = append(l.ips, ip)
	return l.city, l.ok
}

func newAnalyticsService(t *testing.T, locator services.Locator) (*services.AnalyticsService, repositories.AnalyticRepository) {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	repo := repositories.NewGORMAnalyticRepository(db)
	return services.NewAnalyticsService(repo, locator), repo
}

func TestAnalyticsService_RecordEventLocation(t *testing.T) {
	ctx := context.Background()

	resolved, _ := newAnalyticsService(t, &fakeLocator{city: "Bandung", ok: true})
	event, err := resolved.RecordEvent(ctx, services.AnalyticInput{Type: models.AnalyticPage, URL: "/", IPAddress: "36.1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, "Bandung", event.Location)

	failing := &fakeLocator{ok: false}
	unknown, _ := newAnalyticsService(t, failing)
	event, err = unknown.RecordEvent(ctx, services.AnalyticInput{Type: models.AnalyticPage, URL: "/", IPAddress: "36.1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, models.UnknownLocation, event.Location)
	assert.Equal(t, []string{"36.1.2.3"}, failing.ips)

	none, _ := newAnalyticsService(t, nil)
	event, err = none.RecordEvent(ctx, services.AnalyticInput{Type: models.AnalyticButton, URL: "/wa", IPAddress: "36.1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, models.UnknownLocation, event.Location)

	_, err = none.RecordEvent(ctx, services.AnalyticInput{Type: models.AnalyticPage})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestAnalyticsService_GetTrafficAnalytics(t *testing.T) {
	ctx := context.Background()
	svc, repo := newAnalyticsService(t, nil)

	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	record := func(typ models.AnalyticType, target, ip string, at time.Time) {
		require.NoError(t, repo.Create(ctx, &models.Analytic{
			Type: typ, TargetID: target, URL: "/", IPAddress: ip, Location: models.UnknownLocation, CreatedAt: at,
		}))
	}

	record(models.AnalyticPage, "", "1.1.1.1", now.Add(-time.Hour))
	record(models.AnalyticPage, "", "2.2.2.2", now.Add(-2*time.Hour))
	record(models.AnalyticProduct, "p-1", "1.1.1.1", now.Add(-30*time.Minute))
	record(models.AnalyticProduct, "p-1", "3.3.3.3", now.AddDate(0, 0, -3))
	record(models.AnalyticButton, "", "4.4.4.4", now.AddDate(0, 0, -29))
	record(models.AnalyticPage, "", "5.5.5.5", now.AddDate(0, 0, -30)) // outside the window

	report, err := svc.GetTrafficAnalytics(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Visitors)
	assert.Equal(t, 2, report.PageViews)
	assert.Equal(t, 2, report.ProductClicks)
	require.Contains(t, report.ClicksPerProduct, "p-1")
	assert.Equal(t, 2, report.ClicksPerProduct["p-1"].Clicks)
	assert.True(t, report.ClicksPerProduct["p-1"].LastClicked.Equal(now.Add(-30*time.Minute)))

	assert.Len(t, report.Timeline, 30)
	today := report.Timeline["2026-10-16"]
	assert.Equal(t, services.DailyTraffic{Visitors: 2, PageViews: 2, ProductClicks: 1}, today)
	assert.Equal(t, 1, report.Timeline["2026-09-17"].Visitors)
	assert.NotContains(t, report.Timeline, "2026-09-16")
}
