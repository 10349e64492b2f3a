package profile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySource serves recent activity from in-memory slices. It backs
// tests and demos, and doubles as the cache the app fills from its own
// storage.
type MemorySource struct {
	mu       sync.RWMutex
	saved    []SavedItem
	checkIns []CheckIn
	events   []CalendarEvent
	now      func() time.Time
}

// NewMemorySource creates an empty in-memory activity source.
func NewMemorySource() *MemorySource {
	return &MemorySource{now: time.Now}
}

// AddSavedItem records a bookmarked activity.
func (s *MemorySource) AddSavedItem(item SavedItem) {
	s.mu.Lock()
	s.saved = append(s.saved, item)
	s.mu.Unlock()
}

// AddCheckIn records a visit.
func (s *MemorySource) AddCheckIn(checkIn CheckIn) {
	s.mu.Lock()
	s.checkIns = append(s.checkIns, checkIn)
	s.mu.Unlock()
}

// AddEvent records a calendar entry.
func (s *MemorySource) AddEvent(event CalendarEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

// RecentSavedItems returns up to limit bookmarks, newest first.
func (s *MemorySource) RecentSavedItems(ctx context.Context, limit int) ([]SavedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]SavedItem, len(s.saved))
	copy(items, s.saved)
	sort.Slice(items, func(i, j int) bool {
		return items[i].SavedAt.After(items[j].SavedAt)
	})
	return items[:capAt(len(items), limit)], nil
}

// RecentCheckIns returns up to limit visits, newest first.
func (s *MemorySource) RecentCheckIns(ctx context.Context, limit int) ([]CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visits := make([]CheckIn, len(s.checkIns))
	copy(visits, s.checkIns)
	sort.Slice(visits, func(i, j int) bool {
		return visits[i].VisitedAt.After(visits[j].VisitedAt)
	})
	return visits[:capAt(len(visits), limit)], nil
}

// UpcomingEvents returns up to limit future events, soonest first.
func (s *MemorySource) UpcomingEvents(ctx context.Context, limit int) ([]CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	events := make([]CalendarEvent, 0, len(s.events))
	for _, event := range s.events {
		if event.StartsAt.After(now) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events[:capAt(len(events), limit)], nil
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
