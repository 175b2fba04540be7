package cache

import (
	"encoding/json"
	"time"
)

// Stats is a point-in-time snapshot of the cache. ExpiredEntries counts
// entries past their TTL that no read has evicted yet. ApproxSizeBytes is
// the summed JSON size of the stored values, an estimate good enough for an
// operator deciding whether to clear.
type Stats struct {
	Entries         int       `json:"entries"`
	ValidEntries    int       `json:"validEntries"`
	ExpiredEntries  int       `json:"expiredEntries"`
	Pending         int       `json:"pending"`
	Hits            uint64    `json:"hits"`
	Misses          uint64    `json:"misses"`
	Evictions       uint64    `json:"evictions"`
	ApproxSizeBytes int       `json:"approxSizeBytes"`
	OldestExpiry    time.Time `json:"oldestExpiry,omitempty"`
	TakenAt         time.Time `json:"takenAt"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries:   len(c.entries),
		Pending:   len(c.pending),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		TakenAt:   time.Now(),
	}

	for _, e := range c.entries {
		if s.TakenAt.After(e.expiresAt) {
			s.ExpiredEntries++
		} else {
			s.ValidEntries++
		}
		if data, err := json.Marshal(e.value); err == nil {
			s.ApproxSizeBytes += len(data)
		}
		if s.OldestExpiry.IsZero() || e.expiresAt.Before(s.OldestExpiry) {
			s.OldestExpiry = e.expiresAt
		}
	}
	return s
}
