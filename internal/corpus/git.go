package corpus

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

// RepoSource names a git repository whose markdown gets harvested.
type RepoSource struct {
	URL    string `yaml:"url" json:"url"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
}

// shallowDepth keeps harvest clones cheap; history is never needed.
const shallowDepth = 1

// HarvestRepo shallow-clones a repository into a scratch directory,
// harvests its markdown bullets, and removes the clone. The repo name
// becomes the tag and source paths are prefixed with it.
func (c *Corpus) HarvestRepo(src RepoSource) (int, error) {
	if strings.TrimSpace(src.URL) == "" {
		return 0, errors.ValidationFailed("url", "must not be blank")
	}
	name := src.Name
	if name == "" {
		name = repoName(src.URL)
	}

	scratch, err := os.MkdirTemp("", "scout-corpus-*")
	if err != nil {
		return 0, errors.StorageError("create harvest scratch dir", err)
	}
	defer os.RemoveAll(scratch)

	clonePath := filepath.Join(scratch, name)
	opts := &git.CloneOptions{URL: src.URL, Depth: shallowDepth}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}
	if _, err := git.PlainClone(clonePath, false, opts); err != nil {
		return 0, errors.NetworkError(src.URL, err).
			WithContext("operation", "clone corpus repository")
	}

	var harvested []Entry
	err = filepath.WalkDir(clonePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.ToLower(filepath.Ext(d.Name())) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(clonePath, path)
		if rerr != nil {
			rel = path
		}
		for _, bullet := range ExtractBullets(string(data)) {
			harvested = append(harvested, Entry{
				Text:   bullet,
				Source: name + "/" + filepath.ToSlash(rel),
				Tags:   []string{name},
			})
		}
		return nil
	})
	if err != nil {
		return 0, errors.StorageError("walk cloned repository", err).WithContext("url", src.URL)
	}

	added, err := c.merge(harvested)
	if err != nil {
		return 0, err
	}
	c.logger.Info("corpus repository harvested",
		logfields.URL(src.URL),
		logfields.Name(name),
		logfields.Count(added))
	return added, nil
}

// repoName derives a tag from a clone URL ("git@host:me/notes.git" -> "notes").
func repoName(url string) string {
	base := url
	if i := strings.LastIndexAny(base, "/:"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".git")
	if base == "" {
		return "repo"
	}
	return base
}
