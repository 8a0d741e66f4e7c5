package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
	"github.com/macxred/cashctrl-go/internal/cmd/commands/categories"
	"github.com/macxred/cashctrl-go/internal/cmd/commands/files"
	"github.com/macxred/cashctrl-go/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"categories": func() (cli.Command, error) {
			return &categories.Command{Command: b}, nil
		},
		"categories list": func() (cli.Command, error) {
			return &categories.ListCommand{Command: b}, nil
		},
		"categories sync": func() (cli.Command, error) {
			return &categories.SyncCommand{Command: b}, nil
		},
		"files": func() (cli.Command, error) {
			return &files.Command{Command: b}, nil
		},
		"files list": func() (cli.Command, error) {
			return &files.ListCommand{Command: b}, nil
		},
		"files upload": func() (cli.Command, error) {
			return &files.UploadCommand{Command: b}, nil
		},
		"files download": func() (cli.Command, error) {
			return &files.DownloadCommand{Command: b}, nil
		},
		"files mirror": func() (cli.Command, error) {
			return &files.MirrorCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
