package files

import (
	"context"
	"flag"
	"fmt"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
)

type ListCommand struct {
	*base.Command

	flagConfig string
}

func (c *ListCommand) Synopsis() string {
	return "List remote files with their category paths"
}

func (c *ListCommand) Help() string {
	return `Usage: cashctrl files list

  Lists remote files, one "<id>\t<size>\t<path>" line per file, sorted by
  their position in the category tree.` +
		c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the CLI config file.",
	)

	return f
}

func (c *ListCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	client, err := c.NewClient(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating client: %v", err))
		return 1
	}

	files, err := client.ListFiles(context.Background())
	if err != nil {
		ui.Error(fmt.Sprintf("error listing files: %v", err))
		return 1
	}

	for _, file := range files {
		ui.Output(fmt.Sprintf("%d\t%d\t%s", file.ID, file.Size, file.Path))
	}
	return 0
}
