package commands

import (
	"context"
	"fmt"
	"sort"
)

// CorpusCmd manages the experience corpus.
type CorpusCmd struct {
	Build  CorpusBuildCmd  `cmd:"" help:"Harvest all configured corpus sources"`
	Update CorpusUpdateCmd `cmd:"" help:"Re-harvest the configured git repositories"`
	Stats  CorpusStatsCmd  `cmd:"" help:"Show corpus size and composition"`
}

type CorpusBuildCmd struct{}

func (c *CorpusBuildCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	added, err := a.corpus.Build()
	if err != nil {
		return err
	}
	fmt.Printf("%d new bullets harvested\n", added)
	return nil
}

type CorpusUpdateCmd struct{}

func (c *CorpusUpdateCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	added, err := a.corpus.Update()
	if err != nil {
		return err
	}
	fmt.Printf("%d new bullets harvested from repositories\n", added)
	return nil
}

type CorpusStatsCmd struct{}

func (c *CorpusStatsCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.corpus.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("%d bullets from %d sources\n", stats.Bullets, stats.Sources)
	if len(stats.ByTag) > 0 {
		tags := make([]string, 0, len(stats.ByTag))
		for tag := range stats.ByTag {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		fmt.Println()
		for _, tag := range tags {
			fmt.Printf("  %-20s %d\n", tag, stats.ByTag[tag])
		}
	}
	return nil
}
