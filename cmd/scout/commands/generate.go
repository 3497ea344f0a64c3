package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/services"
)

// AnalyzeCmd generates a fit analysis for a job.
type AnalyzeCmd struct {
	JobID string `arg:"" help:"Job ID"`
}

func (c *AnalyzeCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.composer.Analyze(ctx, c.JobID)
	if err != nil {
		return err
	}
	printGeneration(res)
	return nil
}

// ResumeCmd generates a tailored resume.
type ResumeCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Force bool   `help:"Overwrite a hand-edited artifact"`
}

func (c *ResumeCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.composer.GenerateResume(ctx, c.JobID, c.Force)
	if err != nil {
		return err
	}
	printGeneration(res)
	return nil
}

// CoverLetterCmd generates a cover letter.
type CoverLetterCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Force bool   `help:"Overwrite a hand-edited artifact"`
}

func (c *CoverLetterCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.composer.GenerateCoverLetter(ctx, c.JobID, c.Force)
	if err != nil {
		return err
	}
	printGeneration(res)
	return nil
}

// InterviewPrepCmd generates an interview preparation document.
type InterviewPrepCmd struct {
	JobID string `arg:"" help:"Job ID"`
}

func (c *InterviewPrepCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.composer.InterviewPrep(ctx, c.JobID)
	if err != nil {
		return err
	}
	printGeneration(res)
	return nil
}

// RenderCmd re-renders an artifact's HTML from its current markdown,
// picking up hand edits.
type RenderCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Kind  string `arg:"" help:"Artifact kind: analysis, resume, cover_letter, interview_prep"`
}

func (c *RenderCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	kind, err := pipeline.ParseArtifactKind(c.Kind)
	if err != nil {
		return err
	}
	htmlPath, err := a.composer.Render(c.JobID, kind)
	if err != nil {
		return err
	}
	fmt.Printf("Rendered %s\n", htmlPath)
	return nil
}

func printGeneration(res services.GenerationResult) {
	fmt.Printf("%s %s\n  markdown: %s\n  html:     %s\n", res.JobID, res.Kind, res.MarkdownPath, res.HTMLPath)
}
