package store

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/ids"
)

// DescriptionCap bounds stored posting descriptions.
const DescriptionCap = 50_000

// JobPosting is one imported job description, stored per location in
// jobs-<location-slug>.json with a shared index for ID lookup.
type JobPosting struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	ImportedAt  time.Time `json:"imported_at"`
}

// Jobs persists imported postings. Each location gets its own file; the
// index file maps posting IDs to location slugs for O(1) lookup.
type Jobs struct {
	dataDir string
	mu      sync.RWMutex
	now     func() time.Time
}

// NewJobs creates a postings store rooted at dataDir.
func NewJobs(dataDir string) *Jobs {
	return &Jobs{dataDir: dataDir, now: func() time.Time { return time.Now().UTC() }}
}

func (j *Jobs) locationPath(slug string) string {
	return filepath.Join(j.dataDir, "jobs-"+slug+".json")
}

func (j *Jobs) indexPath() string {
	return filepath.Join(j.dataDir, "job-index.json")
}

func (j *Jobs) readLocation(slug string) ([]JobPosting, error) {
	var postings []JobPosting
	if _, err := readJSON(j.locationPath(slug), &postings); err != nil {
		return nil, err
	}
	return postings, nil
}

func (j *Jobs) readIndex() (map[string]string, error) {
	index := make(map[string]string)
	if _, err := readJSON(j.indexPath(), &index); err != nil {
		return nil, err
	}
	return index, nil
}

// Add stores a posting, deriving its ID from the company name when empty.
// Duplicate detection: an existing posting with the same ID, or the same
// company and title in the same location, is returned with existed=true.
func (j *Jobs) Add(posting JobPosting) (JobPosting, bool, error) {
	if strings.TrimSpace(posting.Company) == "" {
		return JobPosting{}, false, errors.ValidationFailed("company", "must not be blank")
	}
	if strings.TrimSpace(posting.Title) == "" {
		return JobPosting{}, false, errors.ValidationFailed("title", "must not be blank")
	}
	if posting.Location == "" {
		posting.Location = "unspecified"
	}
	if len(posting.Description) > DescriptionCap {
		posting.Description = posting.Description[:DescriptionCap]
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	slug := ids.Slugify(posting.Location)
	postings, err := j.readLocation(slug)
	if err != nil {
		return JobPosting{}, false, err
	}
	index, err := j.readIndex()
	if err != nil {
		return JobPosting{}, false, err
	}

	for _, existing := range postings {
		if posting.ID != "" && existing.ID == posting.ID {
			return existing, true, nil
		}
		if strings.EqualFold(existing.Company, posting.Company) &&
			strings.EqualFold(existing.Title, posting.Title) {
			return existing, true, nil
		}
	}

	if posting.ID == "" {
		for attempt := 0; attempt < 5; attempt++ {
			candidate := ids.NewJobID(posting.Company)
			if _, taken := index[candidate]; !taken {
				posting.ID = candidate
				break
			}
		}
		if posting.ID == "" {
			return JobPosting{}, false, errors.Conflict("could not allocate a unique posting id").
				WithContext("company", posting.Company)
		}
	}
	if posting.ImportedAt.IsZero() {
		posting.ImportedAt = j.now()
	}

	postings = append(postings, posting)
	if err := writeJSON(j.locationPath(slug), postings); err != nil {
		return JobPosting{}, false, err
	}
	index[posting.ID] = slug
	if err := writeJSON(j.indexPath(), index); err != nil {
		return JobPosting{}, false, err
	}
	return posting, false, nil
}

// Get looks a posting up by ID via the index.
func (j *Jobs) Get(id string) (JobPosting, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	index, err := j.readIndex()
	if err != nil {
		return JobPosting{}, err
	}
	slug, ok := index[id]
	if !ok {
		return JobPosting{}, errors.NotFound("job posting", id)
	}
	postings, err := j.readLocation(slug)
	if err != nil {
		return JobPosting{}, err
	}
	for _, p := range postings {
		if p.ID == id {
			return p, nil
		}
	}
	// Index points at a file that no longer holds the posting.
	return JobPosting{}, errors.NotFound("job posting", id)
}

// ListFilter narrows List results; zero values match everything.
type ListFilter struct {
	Location string
	Company  string
	Source   string
}

// List returns postings matching the filter, newest import first.
func (j *Jobs) List(filter ListFilter) ([]JobPosting, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	index, err := j.readIndex()
	if err != nil {
		return nil, err
	}
	slugs := make(map[string]bool)
	if filter.Location != "" {
		slugs[ids.Slugify(filter.Location)] = true
	} else {
		for _, slug := range index {
			slugs[slug] = true
		}
	}

	var out []JobPosting
	for slug := range slugs {
		postings, err := j.readLocation(slug)
		if err != nil {
			return nil, err
		}
		for _, p := range postings {
			if filter.Company != "" && !strings.EqualFold(p.Company, filter.Company) {
				continue
			}
			if filter.Source != "" && p.Source != filter.Source {
				continue
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].ImportedAt.Equal(out[k].ImportedAt) {
			return out[i].ImportedAt.After(out[k].ImportedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out, nil
}

// Delete removes a posting and its index entry.
func (j *Jobs) Delete(id string) (JobPosting, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	index, err := j.readIndex()
	if err != nil {
		return JobPosting{}, err
	}
	slug, ok := index[id]
	if !ok {
		return JobPosting{}, errors.NotFound("job posting", id)
	}
	postings, err := j.readLocation(slug)
	if err != nil {
		return JobPosting{}, err
	}
	var removed JobPosting
	kept := postings[:0]
	found := false
	for _, p := range postings {
		if p.ID == id {
			removed = p
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return JobPosting{}, errors.NotFound("job posting", id)
	}
	if err := writeJSON(j.locationPath(slug), kept); err != nil {
		return JobPosting{}, err
	}
	delete(index, id)
	if err := writeJSON(j.indexPath(), index); err != nil {
		return JobPosting{}, err
	}
	return removed, nil
}
