package commands

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/talentscout/internal/services"
)

// CompaniesCmd scouts target companies for a location.
type CompaniesCmd struct {
	Location string `required:"" help:"Location to scout (e.g. oslo, remote)"`
	Count    int    `default:"0" help:"How many companies to ask for"`
}

func (c *CompaniesCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	count := c.Count
	if count <= 0 {
		count = services.DefaultScoutCount
	}
	companies, added, err := a.discovery.ScoutCompanies(ctx, c.Location, count)
	if err != nil {
		return err
	}
	fmt.Printf("%d companies for %s (%d new)\n\n", len(companies), c.Location, added)
	for _, co := range companies {
		mark := " "
		if co.Researched {
			mark = "*"
		}
		fmt.Printf("%s %-30s %s\n", mark, co.Name, co.Reason)
	}
	if len(companies) > 0 {
		fmt.Println("\n* = researched; run: scout research <company>")
	}
	return nil
}

// ResearchCmd researches a single company.
type ResearchCmd struct {
	Company string `arg:"" help:"Company name"`
}

func (r *ResearchCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.discovery.Research(ctx, r.Company)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n\n%s\n", result.Company, strings.Repeat("=", len(result.Company)), result.Summary)
	if len(result.Signals) > 0 {
		fmt.Println("\nSignals:")
		for _, s := range result.Signals {
			fmt.Printf("  - %s\n", s)
		}
	}
	if len(result.LikelyRoles) > 0 {
		fmt.Printf("\nLikely roles: %s\n", strings.Join(result.LikelyRoles, ", "))
	}
	if result.CareersURL != "" {
		fmt.Printf("Careers: %s\n", result.CareersURL)
	}
	return nil
}
