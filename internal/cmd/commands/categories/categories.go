package categories

import (
	"github.com/mitchellh/cli"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "List and synchronize remote category trees"
}

func (c *Command) Help() string {
	return `Usage: cashctrl categories <subcommand> [options] [args]

  This command groups subcommands for working with the category tree of a
  CashCtrl resource ("file", "account", ...).`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
