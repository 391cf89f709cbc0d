// Package collector keeps the ordered list of rows a user enters for one
// compensation domain. The visible table is derived from that list, so the
// two can never disagree on order.
package collector

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"compensa/internal"
	"compensa/internal/util"
)

// RawFields is the unvalidated form input. Quantity and Area are kept as
// typed text so that parsing rules live in one place.
type RawFields struct {
	Quantity     string
	Group        string
	Municipality string
	Endangered   bool
	Area         string
}

type Collector struct {
	mu      sync.RWMutex
	domain  internal.Domain
	items   []internal.LineItem
	options []string
	byName  map[string]string
	newID   func() string
}

func New(domain internal.Domain) *Collector {
	return &Collector{domain: domain, newID: uuid.NewString}
}

// SetOptions installs the municipality names a user may pick from. With no
// options installed any non-empty name is accepted.
func (c *Collector) SetOptions(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.options = make([]string, 0, len(names))
	c.byName = make(map[string]string, len(names))
	for _, name := range names {
		name = util.CollapseSpaces(name)
		key := util.NormalizeName(name)
		if key == "" {
			continue
		}
		if _, dup := c.byName[key]; dup {
			continue
		}
		c.byName[key] = name
		c.options = append(c.options, name)
	}
}

func (c *Collector) Options() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.options...)
}

// Add validates raw and appends a new row. On failure the list is untouched
// and a *ValidationError is returned.
func (c *Collector) Add(raw RawFields) (internal.LineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.validate(raw)
	if err != nil {
		return internal.LineItem{}, err
	}
	item.ID = c.newID()
	item.Domain = c.domain
	c.items = append(c.items, item)
	return item, nil
}

// RemoveAt deletes the row currently at pos (0-based). Positions are read at
// call time, so earlier deletions shift later rows. Out of range is a no-op.
func (c *Collector) RemoveAt(pos int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos < 0 || pos >= len(c.items) {
		return false
	}
	c.items = append(c.items[:pos], c.items[pos+1:]...)
	return true
}

func (c *Collector) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.indexOf(id)
	if pos < 0 {
		return false
	}
	c.items = append(c.items[:pos], c.items[pos+1:]...)
	return true
}

// PositionOf returns the current 0-based position of id, or -1.
func (c *Collector) PositionOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(id)
}

func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a copy of the ordered list.
func (c *Collector) Items() []internal.LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]internal.LineItem, len(c.items))
	for i, item := range c.items {
		out[i] = cloneItem(item)
	}
	return out
}

// Restore replaces the list with previously saved rows, keeping their IDs.
// Rows of another domain are dropped.
func (c *Collector) Restore(items []internal.LineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]internal.LineItem, 0, len(items))
	for _, item := range items {
		if item.Domain != c.domain {
			continue
		}
		if strings.TrimSpace(item.ID) == "" {
			item.ID = c.newID()
		}
		c.items = append(c.items, cloneItem(item))
	}
}

func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// SetResult attaches computed values to the row with the given ID. It
// reports false when the row no longer exists.
func (c *Collector) SetResult(id string, result internal.ComputedResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.indexOf(id)
	if pos < 0 {
		return false
	}
	res := cloneResult(result)
	c.items[pos].Result = &res
	return true
}

func (c *Collector) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneItem(item internal.LineItem) internal.LineItem {
	if item.Result != nil {
		res := cloneResult(*item.Result)
		item.Result = &res
	}
	return item
}

func cloneResult(r internal.ComputedResult) internal.ComputedResult {
	out := internal.ComputedResult{}
	if r.Unit != nil {
		out.Unit = util.FloatPtr(*r.Unit)
	}
	if r.Total != nil {
		out.Total = util.FloatPtr(*r.Total)
	}
	return out
}
