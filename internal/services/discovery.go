package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

// DiscoveryService scouts target companies and researches them.
type DiscoveryService struct {
	companies *store.Companies
	research  *store.Research
	profile   *store.Profile
	client    *llm.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewDiscoveryService wires the discovery service.
func NewDiscoveryService(
	companies *store.Companies,
	research *store.Research,
	profile *store.Profile,
	client *llm.Client,
	logger *slog.Logger,
) *DiscoveryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoveryService{
		companies: companies,
		research:  research,
		profile:   profile,
		client:    client,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// DefaultScoutCount is how many companies one scouting run asks for.
const DefaultScoutCount = 15

type scoutResponse struct {
	Companies []struct {
		Name       string `json:"name"`
		Website    string `json:"website"`
		CareersURL string `json:"careers_url"`
		Size       string `json:"size"`
		Reason     string `json:"reason"`
	} `json:"companies"`
}

// ScoutCompanies asks the model for target companies in a location,
// constrained by the candidate profile and learned preferences, and merges
// them into the companies store. Returns the merged list and how many were
// new.
func (s *DiscoveryService) ScoutCompanies(ctx context.Context, location string, count int) ([]store.Company, int, error) {
	if s.client == nil {
		return nil, 0, errors.ConfigRequired("llm.api_key")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, 0, errors.ValidationFailed("location", "must not be blank")
	}
	if count <= 0 {
		count = DefaultScoutCount
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Find up to %d target companies for a job search in %q.\n\n", count, location)
	s.writeProfileContext(&prompt)
	s.writePreferenceContext(&prompt)
	if existing, err := s.companies.List(location); err == nil && len(existing) > 0 {
		prompt.WriteString("Already known (do not repeat):\n")
		for _, c := range existing {
			fmt.Fprintf(&prompt, "- %s\n", c.Name)
		}
	}

	var resp scoutResponse
	if _, err := s.client.CompleteJSON(ctx, llm.Request{
		System: scoutPrompt,
		User:   prompt.String(),
	}, scoutSchema, &resp); err != nil {
		return nil, 0, err
	}

	scouted := make([]store.Company, 0, len(resp.Companies))
	for _, c := range resp.Companies {
		scouted = append(scouted, store.Company{
			Name:    c.Name,
			Website: c.Website,
			Careers: c.CareersURL,
			Size:    c.Size,
			Reason:  c.Reason,
		})
	}
	added, err := s.companies.Merge(location, scouted)
	if err != nil {
		return nil, 0, err
	}

	merged, err := s.companies.List(location)
	if err != nil {
		return nil, 0, err
	}
	s.logger.Info("companies scouted",
		logfields.Location(location),
		logfields.Count(added))
	return merged, added, nil
}

type researchResponse struct {
	Company     string   `json:"company"`
	Summary     string   `json:"summary"`
	Signals     []string `json:"signals"`
	LikelyRoles []string `json:"likely_roles"`
	CareersURL  string   `json:"careers_url"`
}

// Research runs one company research pass and persists the result. A
// matching scouted company (any location) is marked researched.
func (s *DiscoveryService) Research(ctx context.Context, company string) (store.ResearchResult, error) {
	if s.client == nil {
		return store.ResearchResult{}, errors.ConfigRequired("llm.api_key")
	}
	company = strings.TrimSpace(company)
	if company == "" {
		return store.ResearchResult{}, errors.ValidationFailed("company", "must not be blank")
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Research the company %q.\n\n", company)
	s.writeProfileContext(&prompt)

	var resp researchResponse
	if _, err := s.client.CompleteJSON(ctx, llm.Request{
		System: researchPrompt,
		User:   prompt.String(),
	}, researchSchema, &resp); err != nil {
		return store.ResearchResult{}, err
	}

	result := store.ResearchResult{
		Company:      resp.Company,
		Summary:      resp.Summary,
		Signals:      resp.Signals,
		LikelyRoles:  resp.LikelyRoles,
		CareersURL:   resp.CareersURL,
		ResearchedAt: s.now(),
	}
	if usage := s.client.TotalUsage(); usage.OutputTokens > 0 {
		result.TokensUsed = usage.InputTokens + usage.OutputTokens
	}
	if err := s.research.Save(result); err != nil {
		return store.ResearchResult{}, err
	}
	s.logger.Info("company researched", logfields.Company(result.Company))
	return result, nil
}

// Companies lists scouted companies for a location.
func (s *DiscoveryService) Companies(location string) ([]store.Company, error) {
	return s.companies.List(location)
}

// ResearchResult returns stored research for a company.
func (s *DiscoveryService) ResearchResult(company string) (store.ResearchResult, error) {
	return s.research.Get(company)
}

func (s *DiscoveryService) writeProfileContext(b *strings.Builder) {
	profile, err := s.profile.GetProfile()
	if err != nil || profile.Name == "" {
		return
	}
	b.WriteString("Candidate profile:\n")
	if profile.Headline != "" {
		fmt.Fprintf(b, "- Headline: %s\n", profile.Headline)
	}
	if profile.Seniority != "" {
		fmt.Fprintf(b, "- Seniority: %s\n", profile.Seniority)
	}
	if len(profile.Skills) > 0 {
		fmt.Fprintf(b, "- Skills: %s\n", strings.Join(profile.Skills, ", "))
	}
	if len(profile.Industries) > 0 {
		fmt.Fprintf(b, "- Industries: %s\n", strings.Join(profile.Industries, ", "))
	}
	b.WriteString("\n")
}

func (s *DiscoveryService) writePreferenceContext(b *strings.Builder) {
	prefs, ok, err := s.profile.GetPreferences()
	if err != nil || !ok {
		return
	}
	b.WriteString("Learned preferences:\n")
	if len(prefs.AvoidCompanies) > 0 {
		fmt.Fprintf(b, "- Avoid companies: %s\n", strings.Join(prefs.AvoidCompanies, ", "))
	}
	if len(prefs.AvoidKeywords) > 0 {
		fmt.Fprintf(b, "- Avoid keywords: %s\n", strings.Join(prefs.AvoidKeywords, ", "))
	}
	if len(prefs.PreferKeywords) > 0 {
		fmt.Fprintf(b, "- Prefer keywords: %s\n", strings.Join(prefs.PreferKeywords, ", "))
	}
	b.WriteString("\n")
}
