// Package profile describes the user the assistant is talking to and the
// recent app activity that grounds its answers: saved activities,
// check-ins and upcoming calendar entries.
package profile

import (
	"context"
	"time"
)

// UserContext describes the signed-in user. Location is optional; the
// prompt only mentions it when HasLocation is set.
type UserContext struct {
	DisplayName string  `json:"display_name"`
	Suburb      string  `json:"suburb,omitempty"`
	HasLocation bool    `json:"has_location"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
}

// SavedItem is an activity the user bookmarked in the app.
type SavedItem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category,omitempty"`
	URL      string    `json:"url,omitempty"`
	Note     string    `json:"note,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// CheckIn records a place the family visited.
type CheckIn struct {
	ID        string    `json:"id"`
	Place     string    `json:"place"`
	Suburb    string    `json:"suburb,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
}

// CalendarEvent is an upcoming entry from the family calendar.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	StartsAt time.Time `json:"starts_at"`
}

// Provider supplies the user context when one is known. Returning nil
// without an error means no profile; prompts are built without it.
type Provider interface {
	UserContext(ctx context.Context) (*UserContext, error)
}

// Source supplies recent activity for prompt grounding. Each list is
// independent; a failed or empty lookup just leaves its section out of
// the prompt.
type Source interface {
	RecentSavedItems(ctx context.Context, limit int) ([]SavedItem, error)
	RecentCheckIns(ctx context.Context, limit int) ([]CheckIn, error)
	UpcomingEvents(ctx context.Context, limit int) ([]CalendarEvent, error)
}

// StaticProvider returns a fixed user context.
type StaticProvider struct {
	Context *UserContext
}

// UserContext implements Provider.
func (p *StaticProvider) UserContext(ctx context.Context) (*UserContext, error) {
	return p.Context, nil
}
