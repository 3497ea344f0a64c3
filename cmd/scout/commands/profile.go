package commands

import (
	"context"
	"fmt"
	"strings"
)

// ProfileCmd shows the cached candidate profile, re-extracting on demand.
type ProfileCmd struct {
	Refresh bool `help:"Re-extract the profile from the base resume"`
}

func (p *ProfileCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	get := a.profile.Get
	if p.Refresh {
		get = a.profile.Refresh
	}
	profile, err := get(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s", profile.Name)
	if profile.Headline != "" {
		fmt.Printf(" — %s", profile.Headline)
	}
	fmt.Println()
	if profile.Seniority != "" {
		fmt.Printf("Seniority:   %s (%d years)\n", profile.Seniority, profile.YearsOfExp)
	}
	if len(profile.Skills) > 0 {
		fmt.Printf("Skills:      %s\n", strings.Join(profile.Skills, ", "))
	}
	if len(profile.Industries) > 0 {
		fmt.Printf("Industries:  %s\n", strings.Join(profile.Industries, ", "))
	}
	if len(profile.Locations) > 0 {
		fmt.Printf("Locations:   %s\n", strings.Join(profile.Locations, ", "))
	}
	if profile.Summary != "" {
		fmt.Printf("\n%s\n", profile.Summary)
	}
	fmt.Printf("\nExtracted %s\n", profile.ExtractedAt.Format("2006-01-02 15:04"))
	return nil
}

// LearnCmd distills learned preferences from accumulated signals.
type LearnCmd struct{}

func (l *LearnCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	prefs, err := a.learning.Learn(ctx)
	if err != nil {
		return err
	}
	if len(prefs.AvoidCompanies) > 0 {
		fmt.Printf("Avoid companies: %s\n", strings.Join(prefs.AvoidCompanies, ", "))
	}
	if len(prefs.AvoidKeywords) > 0 {
		fmt.Printf("Avoid keywords:  %s\n", strings.Join(prefs.AvoidKeywords, ", "))
	}
	if len(prefs.PreferKeywords) > 0 {
		fmt.Printf("Prefer keywords: %s\n", strings.Join(prefs.PreferKeywords, ", "))
	}
	if len(prefs.PreferSources) > 0 {
		fmt.Printf("Prefer sources:  %s\n", strings.Join(prefs.PreferSources, ", "))
	}
	if prefs.Commentary != "" {
		fmt.Printf("\n%s\n", prefs.Commentary)
	}
	return nil
}
