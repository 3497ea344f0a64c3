package store

import (
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// CandidateProfile is the structured profile extracted from the base resume.
type CandidateProfile struct {
	Name        string    `json:"name"`
	Headline    string    `json:"headline,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	Industries  []string  `json:"industries,omitempty"`
	Seniority   string    `json:"seniority,omitempty"`
	Locations   []string  `json:"locations,omitempty"`
	YearsOfExp  int       `json:"years_of_experience,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// LearnedPreferences is the learning agent's digest of operator behavior:
// what was deleted (negative) and what progressed (positive).
type LearnedPreferences struct {
	AvoidCompanies []string  `json:"avoid_companies,omitempty"`
	AvoidKeywords  []string  `json:"avoid_keywords,omitempty"`
	PreferKeywords []string  `json:"prefer_keywords,omitempty"`
	PreferSources  []string  `json:"prefer_sources,omitempty"`
	Commentary     string    `json:"commentary,omitempty"`
	LearnedAt      time.Time `json:"learned_at"`
}

// Profile persists the candidate profile and learned preferences.
type Profile struct {
	profilePath string
	prefsPath   string
	mu          sync.RWMutex
}

// NewProfile creates a profile store rooted at dataDir.
func NewProfile(dataDir string) *Profile {
	return &Profile{
		profilePath: filepath.Join(dataDir, "candidate-profile.json"),
		prefsPath:   filepath.Join(dataDir, "learned-preferences.json"),
	}
}

// GetProfile loads the candidate profile.
func (p *Profile) GetProfile() (CandidateProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var profile CandidateProfile
	found, err := readJSON(p.profilePath, &profile)
	if err != nil {
		return CandidateProfile{}, err
	}
	if !found {
		return CandidateProfile{}, errors.NotFound("candidate profile", "candidate-profile.json").
			WithContext("hint", "run 'scout profile --refresh' first")
	}
	return profile, nil
}

// SaveProfile replaces the candidate profile.
func (p *Profile) SaveProfile(profile CandidateProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeJSON(p.profilePath, profile)
}

// GetPreferences loads learned preferences; missing file means none yet.
func (p *Profile) GetPreferences() (LearnedPreferences, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var prefs LearnedPreferences
	found, err := readJSON(p.prefsPath, &prefs)
	if err != nil {
		return LearnedPreferences{}, false, err
	}
	return prefs, found, nil
}

// SavePreferences replaces the learned preferences.
func (p *Profile) SavePreferences(prefs LearnedPreferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeJSON(p.prefsPath, prefs)
}
