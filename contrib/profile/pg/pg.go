// Package pg backs the profile activity source with PostgreSQL, reading
// the saved_items, check_ins and calendar_events tables the app writes.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/fabwinter/Sydneykids/profile"
)

// Source implements profile.Source using PostgreSQL
type Source struct {
	db *sql.DB
}

// Config holds PostgreSQL connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultConfig returns default PostgreSQL configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "sydneykids",
		SSLMode:  "disable",
	}
}

// New creates a PostgreSQL-based profile source
func New(config *Config) (*Source, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	source := &Source{db: db}

	if err := source.createTables(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return source, nil
}

// createTables creates the activity tables if they don't exist
func (s *Source) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS saved_items (
		id VARCHAR(255) PRIMARY KEY,
		title TEXT NOT NULL,
		category VARCHAR(255),
		url TEXT,
		saved_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_saved_items_saved_at ON saved_items(saved_at);
	CREATE TABLE IF NOT EXISTS check_ins (
		id VARCHAR(255) PRIMARY KEY,
		place TEXT NOT NULL,
		suburb VARCHAR(255),
		visited_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_check_ins_visited_at ON check_ins(visited_at);
	CREATE TABLE IF NOT EXISTS calendar_events (
		id VARCHAR(255) PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT,
		starts_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calendar_events_starts_at ON calendar_events(starts_at);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// RecentSavedItems returns up to limit bookmarks, newest first.
func (s *Source) RecentSavedItems(ctx context.Context, limit int) ([]profile.SavedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(category, ''), COALESCE(url, ''), saved_at
		 FROM saved_items
		 ORDER BY saved_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved items: %w", err)
	}
	defer rows.Close()

	items := make([]profile.SavedItem, 0, limit)
	for rows.Next() {
		var item profile.SavedItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Category, &item.URL, &item.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved items: %w", err)
	}
	return items, nil
}

// RecentCheckIns returns up to limit visits, newest first.
func (s *Source) RecentCheckIns(ctx context.Context, limit int) ([]profile.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, place, COALESCE(suburb, ''), visited_at
		 FROM check_ins
		 ORDER BY visited_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	visits := make([]profile.CheckIn, 0, limit)
	for rows.Next() {
		var visit profile.CheckIn
		if err := rows.Scan(&visit.ID, &visit.Place, &visit.Suburb, &visit.VisitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		visits = append(visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}
	return visits, nil
}

// UpcomingEvents returns up to limit future events, soonest first.
func (s *Source) UpcomingEvents(ctx context.Context, limit int) ([]profile.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(location, ''), starts_at
		 FROM calendar_events
		 WHERE starts_at > $1
		 ORDER BY starts_at ASC
		 LIMIT $2`,
		time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	events := make([]profile.CalendarEvent, 0, limit)
	for rows.Next() {
		var event profile.CalendarEvent
		if err := rows.Scan(&event.ID, &event.Title, &event.Location, &event.StartsAt); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar events: %w", err)
	}
	return events, nil
}

// AddSavedItem inserts or updates a bookmark.
func (s *Source) AddSavedItem(ctx context.Context, item profile.SavedItem) error {
	if item.ID == "" {
		return fmt.Errorf("saved item ID cannot be empty")
	}
	if item.SavedAt.IsZero() {
		item.SavedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_items (id, title, category, url, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			url = EXCLUDED.url,
			saved_at = EXCLUDED.saved_at`,
		item.ID, item.Title, item.Category, item.URL, item.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to add saved item: %w", err)
	}
	return nil
}

// AddCheckIn inserts or updates a visit.
func (s *Source) AddCheckIn(ctx context.Context, visit profile.CheckIn) error {
	if visit.ID == "" {
		return fmt.Errorf("check-in ID cannot be empty")
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_ins (id, place, suburb, visited_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			place = EXCLUDED.place,
			suburb = EXCLUDED.suburb,
			visited_at = EXCLUDED.visited_at`,
		visit.ID, visit.Place, visit.Suburb, visit.VisitedAt)
	if err != nil {
		return fmt.Errorf("failed to add check-in: %w", err)
	}
	return nil
}

// AddEvent inserts or updates a calendar entry.
func (s *Source) AddEvent(ctx context.Context, event profile.CalendarEvent) error {
	if event.ID == "" {
		return fmt.Errorf("calendar event ID cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, title, location, starts_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			location = EXCLUDED.location,
			starts_at = EXCLUDED.starts_at`,
		event.ID, event.Title, event.Location, event.StartsAt)
	if err != nil {
		return fmt.Errorf("failed to add calendar event: %w", err)
	}
	return nil
}

// Close closes the PostgreSQL connection
func (s *Source) Close() error {
	return s.db.Close()
}

// Ping checks if the PostgreSQL connection is alive
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
