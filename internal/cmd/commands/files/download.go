package files

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
)

type DownloadCommand struct {
	*base.Command

	flagConfig string
	flagID     int
	flagOut    string
}

func (c *DownloadCommand) Synopsis() string {
	return "Download a remote file"
}

func (c *DownloadCommand) Help() string {
	return `Usage: cashctrl files download -id <id> -out <path>

  Downloads the remote file with the given id and saves it locally.` +
		c.Flags().Help()
}

func (c *DownloadCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("download", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the CLI config file.",
	)
	f.IntVar(
		&c.flagID, "id", 0, "(Required) Id of the remote file.",
	)
	f.StringVar(
		&c.flagOut, "out", "", "(Required) Local path to save the file to.",
	)

	return f
}

func (c *DownloadCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagID == 0 {
		ui.Error("id flag is required")
		return 1
	}
	if c.flagOut == "" {
		ui.Error("out flag is required")
		return 1
	}

	client, err := c.NewClient(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating client: %v", err))
		return 1
	}

	out, err := os.Create(c.flagOut)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating output file: %v", err))
		return 1
	}
	defer out.Close()

	if err := client.DownloadFile(context.Background(), c.flagID, out); err != nil {
		ui.Error(fmt.Sprintf("error downloading file: %v", err))
		return 1
	}
	return 0
}
