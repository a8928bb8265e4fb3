package storage

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"tender-scraper/models"
)

const cooldownPrefix = "tenders:cooldown:"

type memcacheClient interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// MemcacheCooldown keeps per-source cooldown flags in memcache so that they
// expire on their own and survive process restarts.
type MemcacheCooldown struct {
	client memcacheClient
}

// NewMemcacheCooldown connects to the given memcache server(s).
func NewMemcacheCooldown(servers ...string) *MemcacheCooldown {
	return &MemcacheCooldown{client: memcache.New(servers...)}
}

func cooldownKey(s models.Source) string {
	return cooldownPrefix + string(s)
}

// Block parks the source for d.
func (c *MemcacheCooldown) Block(source models.Source, d time.Duration) error {
	secs := int32(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return c.client.Set(&memcache.Item{
		Key:        cooldownKey(source),
		Value:      []byte(time.Now().Add(d).Format(time.RFC3339)),
		Expiration: secs,
	})
}

// Blocked reports whether a cooldown flag is present.
func (c *MemcacheCooldown) Blocked(source models.Source) (bool, error) {
	_, err := c.client.Get(cooldownKey(source))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear lifts the cooldown early.
func (c *MemcacheCooldown) Clear(source models.Source) error {
	err := c.client.Delete(cooldownKey(source))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
