package services

import (
	"log/slog"

	"git.home.luguber.info/inful/talentscout/internal/corpus"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

// CorpusService runs harvests over the configured corpus sources.
type CorpusService struct {
	corpus *corpus.Corpus
	dirs   []string
	repos  []corpus.RepoSource
	logger *slog.Logger
}

// NewCorpusService wires the corpus service with its configured sources.
func NewCorpusService(c *corpus.Corpus, dirs []string, repos []corpus.RepoSource, logger *slog.Logger) *CorpusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusService{corpus: c, dirs: dirs, repos: repos, logger: logger}
}

// Build harvests every configured source, local directories first, and
// returns the number of new bullets. With no sources configured it fails
// with a config error rather than silently doing nothing.
func (s *CorpusService) Build() (int, error) {
	if len(s.dirs) == 0 && len(s.repos) == 0 {
		return 0, errors.ConfigRequired("corpus.dirs")
	}
	added := 0
	for _, dir := range s.dirs {
		n, err := s.corpus.HarvestDir(dir)
		if err != nil {
			return added, err
		}
		added += n
	}
	n, err := s.Update()
	if err != nil {
		return added, err
	}
	added += n
	s.logger.Info("corpus build done", logfields.Count(added))
	return added, nil
}

// Update re-harvests only the git repositories, the sources that change
// without local edits.
func (s *CorpusService) Update() (int, error) {
	added := 0
	for _, repo := range s.repos {
		n, err := s.corpus.HarvestRepo(repo)
		if err != nil {
			return added, err
		}
		added += n
	}
	return added, nil
}

// Stats reports corpus size and composition.
func (s *CorpusService) Stats() (corpus.Stats, error) {
	return s.corpus.Stats()
}
