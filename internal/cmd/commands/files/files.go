package files

import (
	"github.com/mitchellh/cli"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "List, transfer and mirror remote files"
}

func (c *Command) Help() string {
	return `Usage: cashctrl files <subcommand> [options] [args]

  This command groups subcommands for working with the server-side file
  store.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
