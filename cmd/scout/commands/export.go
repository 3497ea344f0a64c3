package commands

import (
	"context"
	"fmt"
)

// ExportCmd writes the pipeline workbook.
type ExportCmd struct {
	Out string `help:"Output path (default from config)"`
}

func (c *ExportCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, root.Config, nil, nil, false)
	if err != nil {
		return err
	}
	defer a.close()

	out := c.Out
	if out == "" {
		out = a.cfg.Export.DefaultOut
	}
	if err := a.export.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
