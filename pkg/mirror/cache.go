package mirror

import (
	"github.com/Jacobbrewer1/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when no size is configured.
const DefaultCacheSize = 5000

// suppressedSize bounds how many pending removals by the bot itself are remembered.
const suppressedSize = 1024

// Cache holds recent messages so deletes and edits can be reported with their content. It also
// remembers messages the bot is removing itself, whose deletes are not reported.
type Cache struct {
	c          *lru.Cache[string, *discordgo.Message]
	suppressed *lru.Cache[string, struct{}]
}

// NewCache creates a cache holding up to size messages.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *discordgo.Message](size)
	if err != nil {
		return nil, err
	}
	suppressed, err := lru.New[string, struct{}](suppressedSize)
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, suppressed: suppressed}, nil
}

// Suppress marks a message whose delete should not be reported.
func (c *Cache) Suppress(id string) {
	c.suppressed.Add(id, struct{}{})
}

// TakeSuppressed reports whether the message was suppressed and clears the mark.
func (c *Cache) TakeSuppressed(id string) bool {
	if _, ok := c.suppressed.Peek(id); !ok {
		return false
	}
	c.suppressed.Remove(id)
	return true
}

// Put stores a copy of the message.
func (c *Cache) Put(m *discordgo.Message) {
	cp := *m
	c.c.Add(m.ID, &cp)
}

// Get returns the cached message.
func (c *Cache) Get(id string) (*discordgo.Message, bool) {
	return c.c.Get(id)
}

// Remove drops the message and returns it if it was cached.
func (c *Cache) Remove(id string) (*discordgo.Message, bool) {
	m, ok := c.c.Peek(id)
	if ok {
		c.c.Remove(id)
	}
	return m, ok
}

// Len is the number of cached messages.
func (c *Cache) Len() int {
	return c.c.Len()
}
