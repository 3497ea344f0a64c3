package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/ids"
)

// ResearchResult is the persisted output of one company research run.
type ResearchResult struct {
	Company       string    `json:"company"`
	Summary       string    `json:"summary"`
	Signals       []string  `json:"signals,omitempty"`
	LikelyRoles   []string  `json:"likely_roles,omitempty"`
	CareersURL    string    `json:"careers_url,omitempty"`
	ResearchedAt  time.Time `json:"researched_at"`
	TokensUsed    int       `json:"tokens_used,omitempty"`
	SourceComment string    `json:"source_comment,omitempty"`
}

// Research persists per-company research results under
// <dataDir>/research/<company-slug>.json.
type Research struct {
	dir string
	mu  sync.RWMutex
}

// NewResearch creates a research store rooted at dataDir.
func NewResearch(dataDir string) *Research {
	return &Research{dir: filepath.Join(dataDir, "research")}
}

func (r *Research) path(company string) string {
	slug := ids.Slugify(company)
	if slug == "" {
		slug = "unknown"
	}
	return filepath.Join(r.dir, slug+".json")
}

// Save writes one research result, replacing any previous run.
func (r *Research) Save(result ResearchResult) error {
	if strings.TrimSpace(result.Company) == "" {
		return errors.ValidationFailed("company", "must not be blank")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSON(r.path(result.Company), result)
}

// Get loads the research result for a company.
func (r *Research) Get(company string) (ResearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result ResearchResult
	found, err := readJSON(r.path(company), &result)
	if err != nil {
		return ResearchResult{}, err
	}
	if !found {
		return ResearchResult{}, errors.NotFound("research result", company)
	}
	return result, nil
}

// List returns every stored research result, most recent first.
func (r *Research) List() ([]ResearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("list research results", err).WithContext("path", r.dir)
	}
	var out []ResearchResult
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var result ResearchResult
		if _, err := readJSON(filepath.Join(r.dir, e.Name()), &result); err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ResearchedAt.After(out[j].ResearchedAt)
	})
	return out, nil
}
