package categories

import (
	"context"
	"flag"
	"fmt"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
)

type ListCommand struct {
	*base.Command

	flagConfig        string
	flagResource      string
	flagIncludeSystem bool
}

func (c *ListCommand) Synopsis() string {
	return "List the remote category tree of a resource"
}

func (c *ListCommand) Help() string {
	return `Usage: cashctrl categories list

  Fetches the category tree of a resource and prints it flattened, one
  "<id>\t<path>" line per category, sorted by path.` +
		c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the CLI config file.",
	)
	f.StringVar(
		&c.flagResource, "resource", "file",
		"Resource type whose category tree to list (\"file\", \"account\", ...).",
	)
	f.BoolVar(
		&c.flagIncludeSystem, "include-system", false,
		"Include system-generated categories.",
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

	categories, err := client.ListCategories(context.Background(), c.flagResource, c.flagIncludeSystem)
	if err != nil {
		ui.Error(fmt.Sprintf("error listing categories: %v", err))
		return 1
	}

	for _, category := range categories {
		ui.Output(fmt.Sprintf("%d\t%s", category.ID, category.Path))
	}
	return 0
}
