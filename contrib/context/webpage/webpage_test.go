package webpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fabwinter/Sydneykids/profile"
)

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarizePrefersOpenGraph(t *testing.T) {
	srv := servePage(t, `<html><head>
		<title>Raw Title | Some Site</title>
		<meta property="og:title" content="Sea Life Sydney Aquarium">
		<meta property="og:description" content="Meet sharks, rays and penguins at Darling Harbour.">
		<meta name="description" content="fallback description">
	</head><body><p>Body text.</p></body></html>`)

	summary, err := NewFetcher().Summarize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Title != "Sea Life Sydney Aquarium" {
		t.Errorf("Title = %q", summary.Title)
	}
	if summary.Description != "Meet sharks, rays and penguins at Darling Harbour." {
		t.Errorf("Description = %q", summary.Description)
	}
}

func TestSummarizeFallsBackToMetaAndTitle(t *testing.T) {
	srv := servePage(t, `<html><head>
		<title>  Royal Botanic
		Garden  </title>
		<meta name="description" content="Gardens by the harbour with free entry.">
	</head><body></body></html>`)

	summary, err := NewFetcher().Summarize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Title != "Royal Botanic Garden" {
		t.Errorf("Title = %q, want whitespace collapsed", summary.Title)
	}
	if summary.Description != "Gardens by the harbour with free entry." {
		t.Errorf("Description = %q", summary.Description)
	}
}

func TestSummarizeFallsBackToFirstParagraph(t *testing.T) {
	srv := servePage(t, `<html><head><title>Playgrounds</title></head><body>
		<p>Short.</p>
		<p>The new playground at Sydney Park has climbing nets, water play and a flying fox suitable for younger kids.</p>
	</body></html>`)

	summary, err := NewFetcher().Summarize(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.HasPrefix(summary.Description, "The new playground at Sydney Park") {
		t.Errorf("Description = %q, want the first substantial paragraph", summary.Description)
	}
}

func TestSummarizeRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewFetcher().Summarize(context.Background(), srv.URL); err == nil {
		t.Fatal("Summarize() accepted a 404 response")
	}
}

func TestAnnotatingSourceFillsNotes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Luna Park</title>
			<meta name="description" content="Harbourside rides under the famous face."></head></html>`))
	}))
	t.Cleanup(srv.Close)

	inner := profile.NewMemorySource()
	inner.AddSavedItem(profile.SavedItem{Title: "Luna Park", URL: srv.URL, SavedAt: time.Now()})
	inner.AddSavedItem(profile.SavedItem{Title: "Home picnic", SavedAt: time.Now()})

	src := NewAnnotatingSource(inner, NewFetcher())

	items, err := src.RecentSavedItems(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentSavedItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	var linked, plain *profile.SavedItem
	for i := range items {
		if items[i].URL != "" {
			linked = &items[i]
		} else {
			plain = &items[i]
		}
	}
	if linked == nil || linked.Note != "Harbourside rides under the famous face." {
		t.Errorf("linked item note = %+v", linked)
	}
	if plain == nil || plain.Note != "" {
		t.Errorf("item without a URL should stay unannotated: %+v", plain)
	}

	// Second lookup must come from the cache.
	before := hits.Load()
	if _, err := src.RecentSavedItems(context.Background(), 10); err != nil {
		t.Fatalf("second RecentSavedItems() error = %v", err)
	}
	if hits.Load() != before {
		t.Errorf("summary fetched again despite cache: %d -> %d hits", before, hits.Load())
	}
}

func TestAnnotatingSourceToleratesFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	inner := profile.NewMemorySource()
	inner.AddSavedItem(profile.SavedItem{Title: "Broken link", URL: srv.URL, SavedAt: time.Now()})

	items, err := NewAnnotatingSource(inner, NewFetcher()).RecentSavedItems(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentSavedItems() error = %v", err)
	}
	if items[0].Note != "" {
		t.Errorf("note = %q, want empty on fetch failure", items[0].Note)
	}
}

func TestAnnotatingSourceForwardsOtherLookups(t *testing.T) {
	inner := profile.NewMemorySource()
	inner.AddCheckIn(profile.CheckIn{Place: "Nielsen Park", VisitedAt: time.Now().Add(-time.Hour)})

	src := NewAnnotatingSource(inner, nil)
	visits, err := src.RecentCheckIns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentCheckIns() error = %v", err)
	}
	if len(visits) != 1 || visits[0].Place != "Nielsen Park" {
		t.Errorf("visits = %+v", visits)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("ab ", 200)
	got := truncate(long, 20)
	if len([]rune(got)) > 23 {
		t.Errorf("truncate left %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated string %q missing ellipsis", got)
	}
	if short := truncate("short", 20); short != "short" {
		t.Errorf("truncate(%q) = %q", "short", short)
	}
}
