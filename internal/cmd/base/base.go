// Package base carries the pieces shared by all CLI commands: the logger,
// the UI, and a flag set that renders its own help text.
package base

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/macxred/cashctrl-go/internal/config"
	"github.com/macxred/cashctrl-go/pkg/cashctrl"
)

// Command is embedded by every CLI command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewClient loads the configuration from configPath (or the environment)
// and builds an API client from it.
func (c *Command) NewClient(configPath string) (*cashctrl.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	clientConfig, err := cfg.ClientConfig(c.Log)
	if err != nil {
		return nil, err
	}
	return cashctrl.New(clientConfig)
}

// FlagSet wraps a flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps the given flag set.
func NewFlagSet(fs *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: fs}
}

// Help returns the flag descriptions as an indented block for appending to
// a command's help text.
func (f *FlagSet) Help() string {
	var lines []string
	f.VisitAll(func(fl *flag.Flag) {
		line := fmt.Sprintf("  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			line += fmt.Sprintf(" (default: %s)", fl.DefValue)
		}
		lines = append(lines, line, "      "+fl.Usage)
	})
	if len(lines) == 0 {
		return ""
	}
	return "\n\nOptions:\n\n" + strings.Join(lines, "\n")
}
