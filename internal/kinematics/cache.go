package kinematics

import (
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes records per trial so the three metrics of one batch parse
// each trial's exports once. Concurrent requests for the same trial share a
// single load. Only successful loads and ErrNoTrialData are remembered.
type Cache struct {
	src   Source
	group singleflight.Group

	mu      sync.Mutex
	records map[string]*Record
	absent  map[string]error
}

// NewCache wraps src with a memoizing cache
func NewCache(src Source) *Cache {
	return &Cache{
		src:     src,
		records: make(map[string]*Record),
		absent:  make(map[string]error),
	}
}

// Record returns the cached record for trial, loading it on first use
func (c *Cache) Record(trial string) (*Record, error) {
	c.mu.Lock()
	if rec, ok := c.records[trial]; ok {
		c.mu.Unlock()
		return rec, nil
	}
	if err, ok := c.absent[trial]; ok {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(trial, func() (any, error) {
		rec, err := c.src.Record(trial)
		c.mu.Lock()
		defer c.mu.Unlock()
		switch {
		case err == nil:
			c.records[trial] = rec
		case errors.Is(err, ErrNoTrialData):
			c.absent[trial] = err
		}
		return rec, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// Forget drops any cached state for trial
func (c *Cache) Forget(trial string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, trial)
	delete(c.absent, trial)
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
