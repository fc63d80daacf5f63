package analytics

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func recordView(t *testing.T, s *Store, v PageView) {
	t.Helper()
	if err := s.RecordView(v); err != nil {
		t.Fatalf("RecordView failed: %v", err)
	}
}

func TestGetStatsAggregates(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()

	recordView(t, s, PageView{PostSlug: "hello", PageType: PageTypePost, VisitorID: "v1", Referrer: "Google", Country: "Brazil", City: "Sao Paulo", Timestamp: now})
	recordView(t, s, PageView{PostSlug: "hello", PageType: PageTypePost, VisitorID: "v2", Referrer: "Direct", Country: "Brazil", Timestamp: now})
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "v1", Referrer: "Google", UTMCampaign: "launch", Country: "Germany", Timestamp: now})

	stats, err := s.GetStats(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.TotalViews != 3 {
		t.Errorf("TotalViews = %d, want 3", stats.TotalViews)
	}
	if stats.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", stats.UniqueVisitors)
	}
	if len(stats.TopPages) == 0 || stats.TopPages[0].Slug != "hello" || stats.TopPages[0].Views != 2 {
		t.Errorf("TopPages = %+v", stats.TopPages)
	}
	if len(stats.Sources) == 0 || stats.Sources[0].Name != "Google" || stats.Sources[0].Count != 2 {
		t.Errorf("Sources = %+v", stats.Sources)
	}
	if len(stats.Campaigns) != 1 || stats.Campaigns[0].Name != "launch" {
		t.Errorf("Campaigns = %+v", stats.Campaigns)
	}
	if len(stats.Countries) == 0 || stats.Countries[0].Name != "Brazil" || stats.Countries[0].Count != 2 {
		t.Errorf("Countries = %+v", stats.Countries)
	}
	if len(stats.DailyViews) != 1 || stats.DailyViews[0].Views != 3 {
		t.Errorf("DailyViews = %+v", stats.DailyViews)
	}
}

func TestGetStatsRespectsWindow(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()

	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "v1", Timestamp: now.AddDate(0, 0, -30)})
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "v2", Timestamp: now})

	stats, err := s.GetStats(now.AddDate(0, 0, -7), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalViews != 1 {
		t.Errorf("TotalViews = %d, want 1 (old view outside window)", stats.TotalViews)
	}
}

func TestPostViewCounts(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		recordView(t, s, PageView{PostSlug: "popular", PageType: PageTypePost, VisitorID: "v1", Timestamp: now})
	}
	recordView(t, s, PageView{PostSlug: "quiet", PageType: PageTypePost, VisitorID: "v1", Timestamp: now})
	// Non-post views never count toward post totals.
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "v1", Timestamp: now})
	recordView(t, s, PageView{PostSlug: "popular", PageType: PageTypeShare, VisitorID: "v1", Timestamp: now})

	counts, err := s.PostViewCounts()
	if err != nil {
		t.Fatalf("PostViewCounts failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d slugs, want 2", len(counts))
	}
	if counts[0].Slug != "popular" || counts[0].Views != 3 {
		t.Errorf("top slug = %+v, want popular with 3 views", counts[0])
	}

	n, err := s.CountViews("quiet")
	if err != nil {
		t.Fatalf("CountViews failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountViews(quiet) = %d, want 1", n)
	}
}

func TestCountOnlineWindow(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()

	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "recent-1", Timestamp: now.Add(-time.Minute)})
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "recent-1", Timestamp: now})
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "recent-2", Timestamp: now})
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "stale", Timestamp: now.Add(-10 * time.Minute)})

	n, err := s.CountOnline()
	if err != nil {
		t.Fatalf("CountOnline failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountOnline = %d, want 2", n)
	}
}

func TestCleanupOldViews(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()

	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "old", Timestamp: now.AddDate(0, 0, -400)})
	recordView(t, s, PageView{PageType: PageTypeHome, VisitorID: "new", Timestamp: now})

	if err := s.CleanupOldViews(365); err != nil {
		t.Fatalf("CleanupOldViews failed: %v", err)
	}

	stats, err := s.GetStats(now.AddDate(-2, 0, 0), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalViews != 1 {
		t.Errorf("TotalViews after cleanup = %d, want 1", stats.TotalViews)
	}
}
