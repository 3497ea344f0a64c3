package store

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/ids"
)

// Company is one scouted target company for a location.
type Company struct {
	Name       string    `json:"name"`
	Website    string    `json:"website,omitempty"`
	Careers    string    `json:"careers_url,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Size       string    `json:"size,omitempty"`
	ScoutedAt  time.Time `json:"scouted_at"`
	Researched bool      `json:"researched"`
}

// Companies persists scouted company lists per location in
// companies-<slug>.json.
type Companies struct {
	dataDir string
	mu      sync.RWMutex
	now     func() time.Time
}

// NewCompanies creates a companies store rooted at dataDir.
func NewCompanies(dataDir string) *Companies {
	return &Companies{dataDir: dataDir, now: func() time.Time { return time.Now().UTC() }}
}

func (c *Companies) path(location string) string {
	return filepath.Join(c.dataDir, "companies-"+ids.Slugify(location)+".json")
}

// List returns the scouted companies for a location, alphabetically.
func (c *Companies) List(location string) ([]Company, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Company
	if _, err := readJSON(c.path(location), &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Merge adds newly scouted companies to a location list, deduplicating by
// case-insensitive name. Existing entries win. Returns how many were added.
func (c *Companies) Merge(location string, scouted []Company) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var existing []Company
	if _, err := readJSON(c.path(location), &existing); err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(strings.TrimSpace(e.Name))] = true
	}

	added := 0
	now := c.now()
	for _, s := range scouted {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if s.ScoutedAt.IsZero() {
			s.ScoutedAt = now
		}
		existing = append(existing, s)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, writeJSON(c.path(location), existing)
}

// MarkResearched flags a company as researched in its location list.
func (c *Companies) MarkResearched(location, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var existing []Company
	if _, err := readJSON(c.path(location), &existing); err != nil {
		return err
	}
	for i := range existing {
		if strings.EqualFold(existing[i].Name, name) {
			existing[i].Researched = true
			return writeJSON(c.path(location), existing)
		}
	}
	return nil
}
