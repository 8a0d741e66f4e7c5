package files

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
	"github.com/macxred/cashctrl-go/pkg/cashctrl"
)

type UploadCommand struct {
	*base.Command

	flagConfig   string
	flagFile     string
	flagName     string
	flagCategory int
	flagReplace  int
	flagMimeType string
}

func (c *UploadCommand) Synopsis() string {
	return "Upload a local file to the remote store"
}

func (c *UploadCommand) Help() string {
	return `Usage: cashctrl files upload -file <path>

  Uploads a local file, marks it for persistent storage and prints the id of
  the created file. With -replace, the remote file with that id is replaced
  instead.` +
		c.Flags().Help()
}

func (c *UploadCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("upload", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the CLI config file.",
	)
	f.StringVar(
		&c.flagFile, "file", "", "(Required) Path to the local file to upload.",
	)
	f.StringVar(
		&c.flagName, "name", "",
		"Filename on the remote server; defaults to the local base name.",
	)
	f.IntVar(
		&c.flagCategory, "category", 0,
		"Id of the category to store the file in; 0 means the root.",
	)
	f.IntVar(
		&c.flagReplace, "replace", 0,
		"Id of the remote file to replace with the new content.",
	)
	f.StringVar(
		&c.flagMimeType, "mime-type", "",
		"MIME type of the file; detected if not provided.",
	)

	return f
}

func (c *UploadCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagFile == "" {
		ui.Error("file flag is required")
		return 1
	}

	client, err := c.NewClient(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating client: %v", err))
		return 1
	}

	opts := cashctrl.UploadOptions{
		Name:      c.flagName,
		ReplaceID: c.flagReplace,
		MimeType:  c.flagMimeType,
	}
	if c.flagCategory != 0 {
		opts.CategoryID = &c.flagCategory
	}

	id, err := client.UploadFile(context.Background(), afero.NewOsFs(), c.flagFile, opts)
	if err != nil {
		ui.Error(fmt.Sprintf("error uploading file: %v", err))
		return 1
	}

	ui.Output(fmt.Sprintf("%d", id))
	return 0
}
