package commands

import (
	"fmt"

	"git.home.luguber.info/inful/talentscout/internal/config"
)

// InitCmd writes a starter configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", root.Config)
	fmt.Println("Edit it, set ANTHROPIC_API_KEY (or llm.api_key), then run: scout profile --refresh")
	return nil
}
