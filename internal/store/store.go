// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"mt5-guard/internal/models"
)

// EventKind classifies journal entries.
type EventKind string

const (
	EventSubmission EventKind = "submission"
	EventTrailSet   EventKind = "trail_set"
	EventTrailMove  EventKind = "trail_move"
	EventDeregister EventKind = "deregister"
)

// Event is a journal row recording a guard action and its outcome.
type Event struct {
	ID      int64
	Time    time.Time
	Kind    EventKind
	Ticket  uint64
	Symbol  string
	Mode    string // fill mode used, when applicable
	Success bool
	Reason  string
	Message string
}

// EventFilter narrows journal queries.
type EventFilter struct {
	Ticket uint64 // 0 matches all
	Kind   EventKind
	Since  time.Time
	Limit  int
}

// GuardStore defines the persistence the guard relies on: durable trailing
// registrations (reloaded on start) and an action journal.
type GuardStore interface {
	SaveTrailConfig(ctx context.Context, cfg *models.TrailConfig) error
	DeleteTrailConfig(ctx context.Context, ticket uint64) error
	ListTrailConfigs(ctx context.Context) ([]models.TrailConfig, error)

	LogEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, filter EventFilter) ([]Event, error)

	Close() error
}
