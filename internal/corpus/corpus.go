// Package corpus harvests resume bullet material from local markdown
// directories and git repositories. The composer grounds generated resumes
// in these bullets instead of letting the model invent experience.
package corpus

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

// Entry is one harvested bullet.
type Entry struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Tags      []string  `json:"tags,omitempty"`
	Harvested time.Time `json:"harvested_at"`
}

// minBulletLen filters out noise like "- TODO".
const minBulletLen = 12

// Corpus maintains the harvested bullet set, persisted as corpus.json in
// the data dir.
type Corpus struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	now    func() time.Time
}

// New creates a corpus store rooted at dataDir.
func New(dataDir string, logger *slog.Logger) *Corpus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Corpus{
		path:   filepath.Join(dataDir, "corpus.json"),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Entries returns all harvested bullets.
func (c *Corpus) Entries() ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.read()
}

func (c *Corpus) read() ([]Entry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("read corpus", err).WithContext("path", c.path)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.StorageError("decode corpus", err).WithContext("path", c.path)
	}
	return entries, nil
}

// HarvestDir walks a directory tree for markdown files and merges their
// bullets into the corpus. The directory name becomes a tag. Returns how
// many new bullets were added.
func (c *Corpus) HarvestDir(dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return 0, errors.ValidationError("corpus source is not a directory").WithContext("path", dir)
	}

	var harvested []Entry
	tag := filepath.Base(dir)
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".md" && ext != ".markdown" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			rel = path
		}
		for _, bullet := range ExtractBullets(string(data)) {
			harvested = append(harvested, Entry{Text: bullet, Source: rel, Tags: []string{tag}})
		}
		return nil
	})
	if err != nil {
		return 0, errors.StorageError("walk corpus directory", err).WithContext("path", dir)
	}
	added, err := c.merge(harvested)
	if err != nil {
		return 0, err
	}
	c.logger.Info("corpus directory harvested",
		logfields.Path(dir),
		logfields.Count(added))
	return added, nil
}

// merge appends bullets not already present (by normalized text).
func (c *Corpus) merge(harvested []Entry) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.read()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[normalize(e.Text)] = true
	}
	added := 0
	now := c.now()
	for _, e := range harvested {
		key := normalize(e.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		e.Harvested = now
		existing = append(existing, e)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, c.write(existing)
}

func (c *Corpus) write(entries []Entry) error {
	sortEntries(entries)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.StorageError("encode corpus", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.StorageError("write corpus", err).WithContext("path", tmp)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return errors.StorageError("replace corpus", err).WithContext("path", c.path)
	}
	return nil
}

// Stats summarizes the corpus for the CLI and API.
type Stats struct {
	Bullets int            `json:"bullets"`
	Sources int            `json:"sources"`
	ByTag   map[string]int `json:"by_tag"`
}

// Stats computes corpus-wide counts.
func (c *Corpus) Stats() (Stats, error) {
	entries, err := c.Entries()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{ByTag: make(map[string]int)}
	sources := make(map[string]bool)
	for _, e := range entries {
		st.Bullets++
		sources[e.Source] = true
		for _, tag := range e.Tags {
			st.ByTag[tag]++
		}
	}
	st.Sources = len(sources)
	return st, nil
}

// ExtractBullets pulls markdown list items out of a document, skipping
// checkboxes, links-only lines, and short fragments.
func ExtractBullets(doc string) []string {
	var bullets []string
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		var body string
		switch {
		case strings.HasPrefix(trimmed, "- "):
			body = trimmed[2:]
		case strings.HasPrefix(trimmed, "* "):
			body = trimmed[2:]
		default:
			continue
		}
		body = strings.TrimSpace(body)
		if strings.HasPrefix(body, "[ ]") || strings.HasPrefix(body, "[x]") {
			continue
		}
		if len(body) < minBulletLen {
			continue
		}
		bullets = append(bullets, body)
	}
	return bullets
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// sortEntries keeps corpus.json diffs stable across harvests.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Source != entries[j].Source {
			return entries[i].Source < entries[j].Source
		}
		return entries[i].Text < entries[j].Text
	})
}
