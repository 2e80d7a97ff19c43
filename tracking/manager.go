package tracking

import (
	"context"
	"log"
	"sync"
	"time"
)

// DriverLocation is the latest reported position for one driver.
type DriverLocation struct {
	DriverID  string    `json:"driver_id"`
	OrderID   int64     `json:"order_id,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager keeps the latest location per driver in memory, mirrored to
// redis (when available) so portals and sibling services can read it
// without touching the ledger. Redis being down degrades to memory-only.
type Manager struct {
	mu        sync.RWMutex
	locations map[string]DriverLocation
	redis     *RedisStore
	warned    bool
}

func NewManager(redis *RedisStore) *Manager {
	return &Manager{
		locations: make(map[string]DriverLocation),
		redis:     redis,
	}
}

func (m *Manager) Update(ctx context.Context, loc DriverLocation) {
	if loc.UpdatedAt.IsZero() {
		loc.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.locations[loc.DriverID] = loc
	warned := m.warned
	m.mu.Unlock()

	if m.redis == nil {
		return
	}
	if err := m.redis.SetLocation(ctx, &loc); err != nil {
		if !warned {
			log.Printf("tracking: redis mirror unavailable (%v), keeping locations in memory", err)
			m.mu.Lock()
			m.warned = true
			m.mu.Unlock()
		}
		return
	}
	if warned {
		m.mu.Lock()
		m.warned = false
		m.mu.Unlock()
	}
}

// Location returns the latest known location for a driver.
func (m *Manager) Location(driverID string) (DriverLocation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[driverID]
	return loc, ok
}

// Snapshot returns all known driver locations.
func (m *Manager) Snapshot() []DriverLocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DriverLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		out = append(out, loc)
	}
	return out
}
