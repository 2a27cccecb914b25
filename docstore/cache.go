package docstore

import (
	"container/list"
	"sync"

	"github.com/hupe1980/searchstore/internal/resource"
)

// docCache is the bounded LRU behind the DocumentStore. It caches
// decompressed documents keyed by lid, including empty results (a lid
// the backend does not know still hits on the second read). Entries
// are evicted from the cold end whenever an insert would exceed the
// byte or entry budget.
type docCache struct {
	mu         sync.Mutex
	maxBytes   int64
	maxEntries int
	size       int64
	items      map[Lid]*list.Element
	evictList  *list.List
	rc         *resource.Controller
}

type docCacheEntry struct {
	lid Lid
	buf []byte
}

func newDocCache(maxBytes, maxEntries int, rc *resource.Controller) *docCache {
	return &docCache{
		maxBytes:   int64(maxBytes),
		maxEntries: maxEntries,
		items:      make(map[Lid]*list.Element),
		evictList:  list.New(),
		rc:         rc,
	}
}

func (c *docCache) get(lid Lid) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[lid]
	if !ok {
		return nil, false
	}
	c.evictList.MoveToFront(ent)
	return ent.Value.(*docCacheEntry).buf, true
}

func (c *docCache) set(lid Lid, buf []byte) {
	itemSize := int64(len(buf))
	if itemSize > c.maxBytes {
		// Oversized documents are served but never cached.
		c.remove(lid)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[lid]; ok {
		e := ent.Value.(*docCacheEntry)
		oldSize := int64(len(e.buf))
		if c.rc != nil && itemSize > oldSize {
			if !c.rc.TryAcquireMemory(itemSize - oldSize) {
				return // keep the old value under global pressure
			}
		}
		if c.rc != nil && itemSize < oldSize {
			c.rc.ReleaseMemory(oldSize - itemSize)
		}
		e.buf = buf
		c.size += itemSize - oldSize
		c.evictList.MoveToFront(ent)
		c.evict()
		return
	}

	// Make room locally first so the controller sees releases before
	// the acquire.
	for c.size+itemSize > c.maxBytes || c.evictList.Len()+1 > c.maxEntries {
		back := c.evictList.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}

	if c.rc != nil && !c.rc.TryAcquireMemory(itemSize) {
		return
	}

	ent := &docCacheEntry{lid: lid, buf: buf}
	c.items[lid] = c.evictList.PushFront(ent)
	c.size += itemSize
}

func (c *docCache) remove(lid Lid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[lid]; ok {
		c.removeElement(ent)
	}
}

func (c *docCache) evict() {
	for c.size > c.maxBytes || c.evictList.Len() > c.maxEntries {
		back := c.evictList.Back()
		if back == nil {
			return
		}
		c.removeElement(back)
	}
}

func (c *docCache) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*docCacheEntry)
	delete(c.items, e.lid)
	itemSize := int64(len(e.buf))
	c.size -= itemSize
	if c.rc != nil {
		c.rc.ReleaseMemory(itemSize)
	}
}

func (c *docCache) bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *docCache) entries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}
