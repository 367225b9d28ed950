package seating

import (
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// GuestCache is the engine's read copy of the guest directory.
type GuestCache struct {
	mu     sync.RWMutex
	guests []model.Guest
}

// Replace swaps the whole cached list.
func (c *GuestCache) Replace(guests []model.Guest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guests = append([]model.Guest{}, guests...)
}

// All returns a copy of the cached guests.
func (c *GuestCache) All() []model.Guest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Guest{}, c.guests...)
}

// Get returns the cached guest with id.
func (c *GuestCache) Get(id string) (model.Guest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.guests {
		if g.ID == id {
			return g, true
		}
	}
	return model.Guest{}, false
}

func (c *GuestCache) setTableNumber(id string, tableNumber *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.guests {
		if c.guests[i].ID != id {
			continue
		}
		if tableNumber == nil {
			c.guests[i].TableNumber = nil
		} else {
			n := *tableNumber
			c.guests[i].TableNumber = &n
		}
	}
}

func (c *GuestCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]model.Guest, 0, len(c.guests))
	for _, g := range c.guests {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	c.guests = kept
}

// Unassigned lists guests without a table whose name contains search,
// ignoring case.  An empty search matches everyone.
func (c *GuestCache) Unassigned(search string) []model.Guest {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := []model.Guest{}
	for _, g := range c.All() {
		if _, seated := g.AssignedTable(); seated {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(g.DisplayName("")), needle) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// ByTable groups seated guests by table number.
func (c *GuestCache) ByTable() map[int][]model.Guest {
	out := map[int][]model.Guest{}
	for _, g := range c.All() {
		if n, seated := g.AssignedTable(); seated {
			out[n] = append(out[n], g)
		}
	}
	return out
}

func sortByName(guests []model.Guest) {
	sort.SliceStable(guests, func(i, j int) bool {
		return strings.ToLower(guests[i].DisplayName("")) < strings.ToLower(guests[j].DisplayName(""))
	})
}
