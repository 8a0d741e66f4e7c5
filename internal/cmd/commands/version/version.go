package version

import (
	"github.com/macxred/cashctrl-go/internal/cmd/base"
	"github.com/macxred/cashctrl-go/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version of this CLI"
}

func (c *Command) Help() string {
	return `Usage: cashctrl version

  Prints the version of this CLI.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
