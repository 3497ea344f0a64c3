package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

// ApplyCmd marks a job applied.
type ApplyCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Via   string `help:"Application channel (referral, linkedin, careers page, ...)"`
	Notes string `help:"Note recorded with the transition"`
	Date  string `help:"Application date as YYYY-MM-DD when backdating"`
}

func (c *ApplyCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	var at *time.Time
	if c.Date != "" {
		parsed, err := time.Parse("2006-01-02", c.Date)
		if err != nil {
			return errors.ValidationFailed("date", "must be YYYY-MM-DD")
		}
		at = &parsed
	}
	rec, err := a.jobs.Apply(ctx, c.JobID, c.Via, c.Notes, at)
	if err != nil {
		return err
	}
	fmt.Printf("%s applied (%s @ %s)\n", rec.ID, rec.Title, rec.Company)
	return nil
}

// StatusCmd moves a job to an explicit stage.
type StatusCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Stage string `arg:"" help:"Target stage"`
	Note  string `help:"Note recorded with the transition"`
}

func (c *StatusCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	stage, err := pipeline.ParseStage(c.Stage)
	if err != nil {
		return err
	}
	rec, err := a.jobs.SetStage(ctx, c.JobID, stage, c.Note)
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", rec.ID, rec.Stage)
	return nil
}

// CloseCmd closes a job with an outcome.
type CloseCmd struct {
	JobID   string `arg:"" help:"Job ID"`
	Outcome string `arg:"" help:"Outcome: accepted, rejected, declined, ghosted, withdrawn"`
	Note    string `help:"Note recorded with the close"`
}

func (c *CloseCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	outcome, err := pipeline.ParseOutcome(c.Outcome)
	if err != nil {
		return err
	}
	rec, err := a.jobs.CloseJob(ctx, c.JobID, outcome, c.Note)
	if err != nil {
		return err
	}
	fmt.Printf("%s closed: %s\n", rec.ID, rec.Outcome)
	return nil
}

// ReopenCmd moves a closed job back into the active pipeline.
type ReopenCmd struct {
	JobID string `arg:"" help:"Job ID"`
	Stage string `help:"Stage to reopen into (default screening)"`
	Note  string `help:"Note recorded with the reopen"`
}

func (c *ReopenCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	var stage pipeline.Stage
	if c.Stage != "" {
		if stage, err = pipeline.ParseStage(c.Stage); err != nil {
			return err
		}
	}
	rec, err := a.jobs.Reopen(ctx, c.JobID, stage, c.Note)
	if err != nil {
		return err
	}
	fmt.Printf("%s reopened -> %s\n", rec.ID, rec.Stage)
	return nil
}

// NoteCmd appends a note to a job.
type NoteCmd struct {
	JobID string   `arg:"" help:"Job ID"`
	Text  []string `arg:"" help:"Note text"`
}

func (c *NoteCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	rec, err := a.jobs.AddNote(c.JobID, strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	fmt.Printf("Noted on %s (%d notes)\n", rec.ID, len(rec.Notes))
	return nil
}

// PipelineCmd shows the active pipeline grouped by stage.
type PipelineCmd struct {
	Stage string `help:"Show only one stage"`
}

func (c *PipelineCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	overview, err := a.jobs.Overview()
	if err != nil {
		return err
	}

	var only pipeline.Stage
	if c.Stage != "" {
		if only, err = pipeline.ParseStage(c.Stage); err != nil {
			return err
		}
	}

	for _, stage := range pipeline.Stages() {
		if only != "" && stage != only {
			continue
		}
		summaries := overview.Stages[stage]
		if len(summaries) == 0 && only == "" {
			continue
		}
		fmt.Printf("%s (%d)\n", strings.ToUpper(string(stage)), len(summaries))
		for _, s := range summaries {
			printSummary(s)
		}
		fmt.Println()
	}
	fmt.Printf("%d active / %d total\n", overview.Active, overview.Total)
	return nil
}

func printSummary(s pipeline.Summary) {
	age := ""
	if s.DaysSinceUpdate > 0 {
		age = fmt.Sprintf(" (%dd)", s.DaysSinceUpdate)
	}
	fmt.Printf("  %-20s %-24s %s%s\n", s.ID, s.Company, s.Title, age)
}

// NextCmd shows the action board: what needs attention, in order.
type NextCmd struct{}

func (c *NextCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	board, err := a.jobs.ActionBoard(time.Now().UTC(), a.cfg.Pipeline.FollowUpDays)
	if err != nil {
		return err
	}
	sections := []struct {
		title string
		items []pipeline.Summary
	}{
		{"OVERDUE FOLLOW-UPS", board.Overdue},
		{"READY TO ACT", board.ReadyToAct},
		{"IN PROGRESS", board.InProgress},
		{"NEXT UP", board.NextUp},
	}
	empty := true
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		empty = false
		fmt.Println(sec.title)
		for _, s := range sec.items {
			printSummary(s)
		}
		fmt.Println()
	}
	if empty {
		fmt.Println("Nothing needs attention.")
	}
	return nil
}

// StatsCmd prints pipeline-wide counts.
type StatsCmd struct{}

func (c *StatsCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.jobs.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Total: %d   Active: %d\n\n", stats.Total, stats.Active)
	for _, stage := range pipeline.Stages() {
		if n := stats.ByStage[stage]; n > 0 {
			fmt.Printf("  %-14s %d\n", stage, n)
		}
	}
	if len(stats.ByOutcome) > 0 {
		fmt.Println("\nOutcomes:")
		for outcome, n := range stats.ByOutcome {
			fmt.Printf("  %-14s %d\n", outcome, n)
		}
	}
	return nil
}

// HistoryCmd prints a job's transition history.
type HistoryCmd struct {
	JobID string `arg:"" help:"Job ID"`
}

func (c *HistoryCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.jobs.History(c.JobID)
	if err != nil {
		return err
	}
	for _, t := range history {
		from := string(t.From)
		if from == "" {
			from = "-"
		}
		line := fmt.Sprintf("%s  %-12s -> %-12s %s", t.At.Format("2006-01-02 15:04"), from, t.To, t.Trigger)
		if t.Note != "" {
			line += "  " + t.Note
		}
		fmt.Println(line)
	}
	return nil
}
