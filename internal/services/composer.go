package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/talentscout/internal/artifacts"
	"git.home.luguber.info/inful/talentscout/internal/corpus"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

// bulletCap bounds how many corpus bullets get inlined into a prompt.
const bulletCap = 40

// ComposerService generates the per-job documents: fit analysis, tailored
// resume, cover letter, and interview prep. Generated markdown is stamped and
// registered on the pipeline record; analysis and resume generation advance
// the record when it still sits earlier in the pipeline.
type ComposerService struct {
	jobs       *store.Jobs
	tracker    *pipeline.Tracker
	writer     *artifacts.Writer
	profile    *store.Profile
	corpus     *corpus.Corpus
	client     *llm.Client
	baseResume string
	logger     *slog.Logger
}

// NewComposerService wires the composer. baseResume is the path to the
// operator's source-of-truth resume markdown.
func NewComposerService(
	jobs *store.Jobs,
	tracker *pipeline.Tracker,
	writer *artifacts.Writer,
	profile *store.Profile,
	bullets *corpus.Corpus,
	client *llm.Client,
	baseResume string,
	logger *slog.Logger,
) *ComposerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComposerService{
		jobs:       jobs,
		tracker:    tracker,
		writer:     writer,
		profile:    profile,
		corpus:     bullets,
		client:     client,
		baseResume: baseResume,
		logger:     logger,
	}
}

// GenerationResult reports one generated artifact.
type GenerationResult struct {
	JobID        string                `json:"job_id"`
	Kind         pipeline.ArtifactKind `json:"kind"`
	MarkdownPath string                `json:"markdown_path"`
	HTMLPath     string                `json:"html_path"`
}

// Analyze produces the fit-analysis artifact and advances the record to
// researched when it is still at discovered.
func (s *ComposerService) Analyze(ctx context.Context, jobID string) (GenerationResult, error) {
	posting, err := s.jobs.Get(jobID)
	if err != nil {
		return GenerationResult{}, err
	}
	resume, err := s.loadBaseResume()
	if err != nil {
		return GenerationResult{}, err
	}

	var prompt strings.Builder
	prompt.WriteString("Job posting:\n\n")
	prompt.WriteString(describePosting(posting))
	prompt.WriteString("\n\nCandidate resume:\n\n")
	prompt.WriteString(resume)

	body, err := s.completeMarkdown(ctx, analyzePrompt, prompt.String())
	if err != nil {
		return GenerationResult{}, err
	}

	res, err := s.saveArtifact(jobID, pipeline.ArtifactAnalysis, body, false)
	if err != nil {
		return GenerationResult{}, err
	}
	if err := s.autoAdvance(ctx, jobID, pipeline.StageResearched, pipeline.TriggerAutoAnalyze); err != nil {
		return GenerationResult{}, err
	}
	return res, nil
}

// GenerateResume produces a tailored resume and advances the record to
// resume_ready. force overwrites a hand-edited artifact.
func (s *ComposerService) GenerateResume(ctx context.Context, jobID string, force bool) (GenerationResult, error) {
	body, err := s.generateGrounded(ctx, jobID, resumePrompt)
	if err != nil {
		return GenerationResult{}, err
	}
	res, err := s.saveArtifact(jobID, pipeline.ArtifactResume, body, force)
	if err != nil {
		return GenerationResult{}, err
	}
	if err := s.autoAdvance(ctx, jobID, pipeline.StageResumeReady, pipeline.TriggerAutoResume); err != nil {
		return GenerationResult{}, err
	}
	return res, nil
}

// autoAdvance nudges the pipeline record forward, matching saveArtifact's
// tolerance for postings tracked without a record.
func (s *ComposerService) autoAdvance(ctx context.Context, jobID string, stage pipeline.Stage, trigger string) error {
	if _, err := s.tracker.AutoAdvance(ctx, jobID, stage, trigger); err != nil {
		if !errors.IsCategory(err, errors.CategoryNotFound) {
			return err
		}
	}
	return nil
}

// GenerateCoverLetter produces a cover letter artifact. No stage change; a
// letter can be written at any point before applying.
func (s *ComposerService) GenerateCoverLetter(ctx context.Context, jobID string, force bool) (GenerationResult, error) {
	body, err := s.generateGrounded(ctx, jobID, coverLetterPrompt)
	if err != nil {
		return GenerationResult{}, err
	}
	return s.saveArtifact(jobID, pipeline.ArtifactCoverLetter, body, force)
}

// InterviewPrep produces the interview preparation document.
func (s *ComposerService) InterviewPrep(ctx context.Context, jobID string) (GenerationResult, error) {
	posting, err := s.jobs.Get(jobID)
	if err != nil {
		return GenerationResult{}, err
	}
	resume, err := s.loadBaseResume()
	if err != nil {
		return GenerationResult{}, err
	}
	analysis, _ := s.writer.ReadMarkdown(jobID, pipeline.ArtifactAnalysis)

	var prompt strings.Builder
	prompt.WriteString("Job posting:\n\n")
	prompt.WriteString(describePosting(posting))
	prompt.WriteString("\n\nCandidate resume:\n\n")
	prompt.WriteString(resume)
	if analysis != "" {
		prompt.WriteString("\n\nEarlier fit analysis:\n\n")
		prompt.WriteString(analysis)
	}

	body, err := s.completeMarkdown(ctx, interviewPrepPrompt, prompt.String())
	if err != nil {
		return GenerationResult{}, err
	}
	return s.saveArtifact(jobID, pipeline.ArtifactInterviewPrep, body, false)
}

// Render re-renders the HTML for an existing (possibly hand-edited)
// artifact.
func (s *ComposerService) Render(jobID string, kind pipeline.ArtifactKind) (string, error) {
	return s.writer.RenderExisting(jobID, kind)
}

// generateGrounded builds the shared prompt for resume and cover letter
// generation: posting, base resume, extracted profile, corpus bullets, and
// the stored analysis when present.
func (s *ComposerService) generateGrounded(ctx context.Context, jobID, system string) (string, error) {
	posting, err := s.jobs.Get(jobID)
	if err != nil {
		return "", err
	}
	resume, err := s.loadBaseResume()
	if err != nil {
		return "", err
	}

	var prompt strings.Builder
	prompt.WriteString("Job posting:\n\n")
	prompt.WriteString(describePosting(posting))
	prompt.WriteString("\n\nCandidate base resume:\n\n")
	prompt.WriteString(resume)

	if profile, err := s.profile.GetProfile(); err == nil && profile.Name != "" {
		fmt.Fprintf(&prompt, "\n\nStructured profile: %s, %s, skills: %s\n",
			profile.Name, profile.Headline, strings.Join(profile.Skills, ", "))
	}
	if s.corpus != nil {
		if entries, err := s.corpus.Entries(); err == nil && len(entries) > 0 {
			prompt.WriteString("\nExperience bullets (use only these facts):\n")
			for i, e := range entries {
				if i >= bulletCap {
					break
				}
				fmt.Fprintf(&prompt, "- %s\n", e.Text)
			}
		}
	}
	if analysis, err := s.writer.ReadMarkdown(jobID, pipeline.ArtifactAnalysis); err == nil {
		prompt.WriteString("\nEarlier fit analysis:\n\n")
		prompt.WriteString(analysis)
	}

	return s.completeMarkdown(ctx, system, prompt.String())
}

func (s *ComposerService) completeMarkdown(ctx context.Context, system, user string) (string, error) {
	if s.client == nil {
		return "", errors.ConfigRequired("llm.api_key")
	}
	resp, err := s.client.Complete(ctx, llm.Request{System: system, User: user})
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(resp.Text)
	if body == "" {
		return "", errors.GenerationFailed("generate document", nil)
	}
	return body, nil
}

func (s *ComposerService) saveArtifact(jobID string, kind pipeline.ArtifactKind, body string, force bool) (GenerationResult, error) {
	rel, err := s.writer.Write(jobID, kind, body, force)
	if err != nil {
		return GenerationResult{}, err
	}
	if _, err := s.tracker.RecordArtifact(jobID, kind, rel); err != nil {
		// A posting can exist without a pipeline record; the artifact is
		// still on disk and usable.
		if !errors.IsCategory(err, errors.CategoryNotFound) {
			return GenerationResult{}, err
		}
	}
	s.logger.Info("artifact generated",
		logfields.JobID(jobID),
		logfields.Artifact(string(kind)))
	return GenerationResult{
		JobID:        jobID,
		Kind:         kind,
		MarkdownPath: s.writer.MarkdownPath(jobID, kind),
		HTMLPath:     s.writer.HTMLPath(jobID, kind),
	}, nil
}

func (s *ComposerService) loadBaseResume() (string, error) {
	if s.baseResume == "" {
		return "", errors.ConfigRequired("profile.base_resume")
	}
	data, err := os.ReadFile(s.baseResume)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound("base resume", s.baseResume)
		}
		return "", errors.StorageError("read base resume", err).WithContext("path", s.baseResume)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.ValidationError("base resume is empty").WithContext("path", s.baseResume)
	}
	return string(data), nil
}
