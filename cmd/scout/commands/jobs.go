package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/services"
)

// ImportCmd imports a job posting from a URL, file, or directory sweep.
type ImportCmd struct {
	URL  string `help:"Posting URL to fetch and import" xor:"source"`
	File string `help:"Markdown posting file to import" xor:"source" type:"existingfile"`
	Dir  string `help:"Directory of markdown postings to import" xor:"source" type:"existingdir"`
}

func (i *ImportCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	switch {
	case i.URL != "":
		res, err := a.jobs.ImportURL(ctx, i.URL)
		if err != nil {
			return err
		}
		printImport(res)
	case i.File != "":
		res, err := a.jobs.ImportFile(ctx, i.File)
		if err != nil {
			return err
		}
		printImport(res)
	case i.Dir != "":
		report, err := a.jobs.ImportDir(ctx, i.Dir)
		if err != nil {
			return err
		}
		for _, res := range report.Imported {
			printImport(res)
		}
		for name, msg := range report.Failed {
			fmt.Printf("FAILED  %s: %s\n", name, msg)
		}
		fmt.Printf("\n%d imported, %d failed\n", len(report.Imported), len(report.Failed))
	default:
		return errors.ValidationError("one of --url, --file, or --dir is required")
	}
	return nil
}

func printImport(res services.ImportResult) {
	state := "imported"
	if res.Existed {
		state = "already tracked"
	}
	fmt.Printf("%s  %s @ %s (%s)\n", res.Posting.ID, res.Posting.Title, res.Posting.Company, state)
}

// JobsCmd lists tracked postings.
type JobsCmd struct {
	Location string `help:"Filter by location substring"`
	Company  string `help:"Filter by company substring"`
	Source   string `help:"Filter by import source"`
	Stage    string `help:"Filter by pipeline stage"`
}

func (j *JobsCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	postings, err := a.jobs.List(services.ListFilter{
		Location: j.Location,
		Company:  j.Company,
		Source:   j.Source,
		Stage:    j.Stage,
	})
	if err != nil {
		return err
	}
	if len(postings) == 0 {
		fmt.Println("No jobs tracked. Import one with: scout import --url <posting-url>")
		return nil
	}
	for _, p := range postings {
		stage := ""
		if rec, err := a.tracker.Get(p.ID); err == nil {
			stage = string(rec.Stage)
		}
		fmt.Printf("%-20s %-12s %-28s %s\n", p.ID, stage, p.Company, p.Title)
	}
	return nil
}

// ShowCmd prints one job with pipeline state and artifacts.
type ShowCmd struct {
	JobID string `arg:"" help:"Job ID"`
}

func (s *ShowCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	detail, err := a.jobs.Get(s.JobID)
	if err != nil {
		return err
	}
	p := detail.Posting
	fmt.Printf("%s\n%s @ %s\n", p.ID, p.Title, p.Company)
	if p.Location != "" {
		fmt.Printf("Location: %s\n", p.Location)
	}
	if p.URL != "" {
		fmt.Printf("URL:      %s\n", p.URL)
	}
	fmt.Printf("Source:   %s\nImported: %s\n", p.Source, p.ImportedAt.Format("2006-01-02"))

	rec := detail.Record
	if rec.ID != "" {
		fmt.Printf("\nStage:    %s\n", rec.Stage)
		if rec.Outcome != "" {
			fmt.Printf("Outcome:  %s\n", rec.Outcome)
		}
		if rec.AppliedAt != nil {
			via := rec.AppliedVia
			if via == "" {
				via = "unknown channel"
			}
			fmt.Printf("Applied:  %s via %s\n", rec.AppliedAt.Format("2006-01-02"), via)
		}
		if len(rec.Artifacts) > 0 {
			fmt.Printf("Artifacts:")
			for _, k := range rec.Artifacts {
				fmt.Printf(" %s", k)
			}
			fmt.Println()
		}
		if len(rec.Notes) > 0 {
			fmt.Println("\nNotes:")
			for _, n := range rec.Notes {
				fmt.Printf("  %s  %s\n", n.CreatedAt.Format("2006-01-02"), n.Text)
			}
		}
	}
	return nil
}

// DeleteCmd removes a job and records the deletion as a negative signal.
type DeleteCmd struct {
	JobID  string `arg:"" help:"Job ID"`
	Reason string `help:"Why this job is not interesting"`
}

func (d *DeleteCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	posting, err := a.jobs.Delete(d.JobID, d.Reason)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %s (%s @ %s)\n", posting.ID, posting.Title, posting.Company)
	return nil
}
