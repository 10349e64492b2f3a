package webpage

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/fabwinter/Sydneykids/pkg/logging"
	"github.com/fabwinter/Sydneykids/profile"
)

// AnnotatingSource decorates a profile source, filling the note on each
// saved link with a summary fetched from its page. Items without a URL,
// and pages that cannot be fetched, pass through unchanged. Summaries
// are cached per URL for the life of the source.
type AnnotatingSource struct {
	profile.Source

	fetcher *Fetcher
	logger  *slog.Logger

	mu    sync.Mutex
	notes map[string]string
}

// NewAnnotatingSource wraps src. A nil fetcher gets the default.
func NewAnnotatingSource(src profile.Source, fetcher *Fetcher) *AnnotatingSource {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	return &AnnotatingSource{
		Source:  src,
		fetcher: fetcher,
		logger:  logging.WithComponent("webpage"),
		notes:   make(map[string]string),
	}
}

// RecentSavedItems implements profile.Source.
func (s *AnnotatingSource) RecentSavedItems(ctx context.Context, limit int) ([]profile.SavedItem, error) {
	items, err := s.Source.RecentSavedItems(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].URL == "" || items[i].Note != "" {
			continue
		}
		items[i].Note = s.note(ctx, items[i].URL)
	}
	return items, nil
}

func (s *AnnotatingSource) note(ctx context.Context, pageURL string) string {
	s.mu.Lock()
	if note, ok := s.notes[pageURL]; ok {
		s.mu.Unlock()
		return note
	}
	s.mu.Unlock()

	summary, err := s.fetcher.Summarize(ctx, pageURL)
	if err != nil {
		s.logger.Debug("failed to summarize saved link", "url", pageURL, "error", err)
		return ""
	}

	note := summary.Description
	if note == "" {
		note = summary.Title
	}
	note = truncate(note, defaultNoteRunes)

	s.mu.Lock()
	s.notes[pageURL] = note
	s.mu.Unlock()
	return note
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
