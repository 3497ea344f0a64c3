// Package commands defines the scout CLI. Every command loads configuration,
// assembles the service layer it needs, runs one operation, and prints a
// human-readable result. Errors bubble up to the CLI error adapter in main.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global carries state shared across subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init          InitCmd          `cmd:"" help:"Write a starter configuration file"`
	Profile       ProfileCmd       `cmd:"" help:"Show or refresh the extracted candidate profile"`
	Companies     CompaniesCmd     `cmd:"" help:"Scout target companies for a location"`
	Research      ResearchCmd      `cmd:"" help:"Research a company"`
	Import        ImportCmd        `cmd:"" help:"Import a job posting from a URL, file, or directory"`
	Jobs          JobsCmd          `cmd:"" help:"List tracked job postings"`
	Show          ShowCmd          `cmd:"" help:"Show one job with its pipeline state"`
	Delete        DeleteCmd        `cmd:"" help:"Delete a job and record the signal for learning"`
	Learn         LearnCmd         `cmd:"" help:"Distill preferences from deletions and outcomes"`
	Analyze       AnalyzeCmd       `cmd:"" help:"Generate a fit analysis for a job"`
	Resume        ResumeCmd        `cmd:"" help:"Generate a tailored resume for a job"`
	CoverLetter   CoverLetterCmd   `cmd:"" name:"cover-letter" help:"Generate a cover letter for a job"`
	InterviewPrep InterviewPrepCmd `cmd:"" name:"interview-prep" help:"Generate an interview prep document"`
	Render        RenderCmd        `cmd:"" help:"Re-render an artifact's HTML from its markdown"`
	Apply         ApplyCmd         `cmd:"" help:"Mark a job as applied"`
	Status        StatusCmd        `cmd:"" help:"Move a job to a pipeline stage"`
	Close         CloseCmd         `cmd:"" help:"Close a job with an outcome"`
	Reopen        ReopenCmd        `cmd:"" help:"Reopen a closed job"`
	Note          NoteCmd          `cmd:"" help:"Append a note to a job"`
	Pipeline      PipelineCmd      `cmd:"" help:"Show the active pipeline grouped by stage"`
	Next          NextCmd          `cmd:"" help:"Show what to do next"`
	Stats         StatsCmd         `cmd:"" help:"Show pipeline statistics"`
	History       HistoryCmd       `cmd:"" help:"Show a job's transition history"`
	Export        ExportCmd        `cmd:"" help:"Export the pipeline to an xlsx workbook"`
	Corpus        CorpusCmd        `cmd:"" help:"Manage the experience corpus"`
	Serve         ServeCmd         `cmd:"" help:"Run the API server with background jobs"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
