package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"tablebook/internal/models"
)

type memoryEntry struct {
	slots     map[string]models.SlotAvailability
	expiresAt time.Time
}

// MemoryAvailabilityCache is the in-process fallback used when redis
// is unreachable or not configured.
type MemoryAvailabilityCache struct {
	entries sync.Map // map[string]*memoryEntry
	ttl     time.Duration
}

func NewMemoryAvailabilityCache(ttl time.Duration) *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{ttl: ttl}
}

func (m *MemoryAvailabilityCache) Get(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, bool, error) {
	val, ok := m.entries.Load(availabilityKey(date, partySize))
	if !ok {
		return nil, false, nil
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(availabilityKey(date, partySize))
		return nil, false, nil
	}
	return cloneSlots(entry.slots), true, nil
}

func (m *MemoryAvailabilityCache) Set(ctx context.Context, date string, partySize int, slots map[string]models.SlotAvailability) error {
	m.entries.Store(availabilityKey(date, partySize), &memoryEntry{
		slots:     cloneSlots(slots),
		expiresAt: time.Now().Add(m.ttl),
	})
	return nil
}

// cloneSlots detaches the stored map from the caller's so neither side
// can mutate the other's view.
func cloneSlots(slots map[string]models.SlotAvailability) map[string]models.SlotAvailability {
	out := make(map[string]models.SlotAvailability, len(slots))
	for slot, avail := range slots {
		out[slot] = avail
	}
	return out
}

func (m *MemoryAvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	prefix := "availability:" + date + ":"
	m.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			m.entries.Delete(key)
		}
		return true
	})
	return nil
}
