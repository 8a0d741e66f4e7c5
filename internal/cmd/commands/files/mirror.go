package files

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
	"github.com/macxred/cashctrl-go/pkg/cashctrl"
)

type MirrorCommand struct {
	*base.Command

	flagConfig           string
	flagDir              string
	flagDeleteFiles      bool
	flagDeleteCategories bool
}

func (c *MirrorCommand) Synopsis() string {
	return "Mirror a local directory onto the remote file store"
}

func (c *MirrorCommand) Help() string {
	return `Usage: cashctrl files mirror -dir <path>

  Recursively mirrors a local directory on the server: local sub-folders map
  to remote categories and local files to remote files. Missing items are
  created and outdated files are replaced; deletions only happen with the
  -delete-files and -delete-categories flags.` +
		c.Flags().Help()
}

func (c *MirrorCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("mirror", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the CLI config file.",
	)
	f.StringVar(
		&c.flagDir, "dir", "", "(Required) Path of the local directory to mirror.",
	)
	f.BoolVar(
		&c.flagDeleteFiles, "delete-files", false,
		"Delete remote files without a corresponding local file.",
	)
	f.BoolVar(
		&c.flagDeleteCategories, "delete-categories", false,
		"Delete unused remote categories (folders).",
	)

	return f
}

func (c *MirrorCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagDir == "" {
		ui.Error("dir flag is required")
		return 1
	}

	client, err := c.NewClient(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating client: %v", err))
		return 1
	}

	err = client.MirrorDirectory(context.Background(), afero.NewOsFs(), c.flagDir,
		cashctrl.MirrorOptions{
			DeleteFiles:      c.flagDeleteFiles,
			DeleteCategories: c.flagDeleteCategories,
		})
	if err != nil {
		ui.Error(fmt.Sprintf("error mirroring directory: %v", err))
		return 1
	}

	ui.Info("Mirror completed")
	return 0
}
