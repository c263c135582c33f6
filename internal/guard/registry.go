package guard

import (
	"context"
	"sort"
	"sync"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
	"mt5-guard/internal/store"
)

// Registry owns the set of trailing-stop registrations. Callers may
// register and remove tickets concurrently while a guard cycle is in
// progress; the lock is held only around map access, never across venue
// calls. Registrations are mirrored to the store (when one is configured)
// so they survive restarts.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*models.TrailConfig
	store   store.GuardStore // optional
}

// NewRegistry creates an empty registry. st may be nil for a purely
// in-memory registry.
func NewRegistry(st store.GuardStore) *Registry {
	return &Registry{
		entries: make(map[uint64]*models.TrailConfig),
		store:   st,
	}
}

// Load restores persisted registrations. Called once before the scheduler
// starts cycling.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	configs, err := r.store.ListTrailConfigs(ctx)
	if err != nil {
		return errors.Wrap(err, "loading trail configs")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range configs {
		cfg := configs[i]
		r.entries[cfg.Ticket] = &cfg
	}
	return nil
}

// Register adds or replaces the trailing configuration for a ticket.
// A registration added during a cycle is picked up no later than the next
// cycle.
func (r *Registry) Register(ctx context.Context, cfg *models.TrailConfig) error {
	if cfg.Distance <= 0 {
		return errors.NewValidationError("distance", cfg.Distance, "must be positive")
	}
	if cfg.Activation < 0 {
		return errors.NewValidationError("activation", cfg.Activation, "must not be negative")
	}

	r.mu.Lock()
	c := *cfg
	r.entries[cfg.Ticket] = &c
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveTrailConfig(ctx, cfg); err != nil {
			return errors.Wrap(err, "persisting trail config")
		}
	}
	return nil
}

// Deregister removes a ticket. Removing an unknown ticket is a no-op.
func (r *Registry) Deregister(ctx context.Context, ticket uint64) error {
	r.mu.Lock()
	delete(r.entries, ticket)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.DeleteTrailConfig(ctx, ticket); err != nil {
			return errors.Wrap(err, "deleting trail config")
		}
	}
	return nil
}

// UpdateLastStop records the stop value last applied for a ticket.
func (r *Registry) UpdateLastStop(ctx context.Context, ticket uint64, stop float64) error {
	r.mu.Lock()
	cfg, ok := r.entries[ticket]
	if ok {
		cfg.LastStop = stop
	}
	var copyCfg models.TrailConfig
	if ok {
		copyCfg = *cfg
	}
	r.mu.Unlock()

	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "ticket %d", ticket)
	}
	if r.store != nil {
		if err := r.store.SaveTrailConfig(ctx, &copyCfg); err != nil {
			return errors.Wrap(err, "persisting trail config")
		}
	}
	return nil
}

// Snapshot returns a stable copy of all registrations, ordered by ticket,
// for lock-free per-entry processing.
func (r *Registry) Snapshot() []models.TrailConfig {
	r.mu.Lock()
	out := make([]models.TrailConfig, 0, len(r.entries))
	for _, cfg := range r.entries {
		out = append(out, *cfg)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out
}

// Get returns a copy of the registration for a ticket.
func (r *Registry) Get(ticket uint64) (models.TrailConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.entries[ticket]
	if !ok {
		return models.TrailConfig{}, false
	}
	return *cfg, true
}

// Len returns the number of watched tickets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
