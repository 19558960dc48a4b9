// Package cache keeps recently rendered artifacts in memory so the HTTP layer
// can serve them by id and skip re-rendering identical requests.
package cache

import (
	"container/list"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-chord/synth"
)

// Entry is one cached render.
type Entry struct {
	ID       string
	Key      string
	Artifact *synth.Artifact
	Notes    []synth.ChordNotes
	Created  time.Time
}

// Cache is a fixed-capacity LRU of artifacts, addressable by id and by
// request key. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	byID     map[string]*list.Element
	byKey    map[string]*list.Element
	now      func() time.Time
}

// New returns a cache holding at most capacity artifacts (minimum 1).
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		byID:     make(map[string]*list.Element),
		byKey:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Key identifies a render request. Preset names are compared
// case-insensitively.
func Key(symbols []string, presetName string, duration float64) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = strings.TrimSpace(s)
	}
	return strings.ToLower(strings.TrimSpace(presetName)) + "|" +
		strings.Join(parts, ",") + "|" +
		strconv.FormatFloat(duration, 'g', -1, 64)
}

// Put stores art and its note names under key and returns its id. Storing
// an existing key replaces the artifact but keeps the id.
func (c *Cache) Put(key string, art *synth.Artifact, notes []synth.ChordNotes) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		e := el.Value.(*Entry)
		e.Artifact = art
		e.Notes = notes
		e.Created = c.now()
		c.ll.MoveToFront(el)
		return e.ID
	}

	e := &Entry{ID: uuid.New().String(), Key: key, Artifact: art, Notes: notes, Created: c.now()}
	el := c.ll.PushFront(e)
	c.byID[e.ID] = el
	c.byKey[key] = el
	for c.ll.Len() > c.capacity {
		c.removeElement(c.ll.Back())
	}
	return e.ID
}

// Get returns the artifact stored under id and marks it recently used.
func (c *Cache) Get(id string) (*synth.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*Entry).Artifact, true
}

// Lookup finds a cached render by request key.
func (c *Cache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byKey[key]
	if !ok {
		return Entry{}, false
	}
	c.ll.MoveToFront(el)
	return *el.Value.(*Entry), true
}

// Remove evicts id and reports whether it was present.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byID[id]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Purge evicts everything.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.byID = make(map[string]*list.Element)
	c.byKey = make(map[string]*list.Element)
}

// Len returns the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) removeElement(el *list.Element) {
	e := c.ll.Remove(el).(*Entry)
	delete(c.byID, e.ID)
	delete(c.byKey, e.Key)
}
