package answer

import (
	"container/list"
	"sync"

	"github.com/varunaddh/streamdown/internal/blocks"
)

// SeenCache is a bounded LRU of final parsed block sequences keyed by
// answer identity. A re-shown historical answer is served from here and
// never re-animates. Clear it when a new top-level conversation starts.
type SeenCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	lruList *list.List
}

type seenEntry struct {
	id     string
	blocks []blocks.Block
}

// NewSeenCache creates a cache bounded to maxSize answers.
func NewSeenCache(maxSize int) *SeenCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &SeenCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get returns the cached final blocks for an answer identity. A hit moves
// the entry to the front of the LRU order.
func (c *SeenCache) Get(id string) ([]blocks.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*seenEntry).blocks, true
	}
	return nil, false
}

// Put records the final blocks for an answer identity, evicting the least
// recently used entry at capacity.
func (c *SeenCache) Put(id string, bs []blocks.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*seenEntry).blocks = bs
		return
	}

	if c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest != nil {
			entry := oldest.Value.(*seenEntry)
			delete(c.entries, entry.id)
			c.lruList.Remove(oldest)
		}
	}

	elem := c.lruList.PushFront(&seenEntry{id: id, blocks: bs})
	c.entries[id] = elem
}

// Size returns the number of cached answers.
func (c *SeenCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache. Call on new-conversation boundaries.
func (c *SeenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lruList.Init()
}
