package categories

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/macxred/cashctrl-go/internal/cmd/base"
)

type SyncCommand struct {
	*base.Command

	flagConfig   string
	flagResource string
	flagTarget   string
	flagDelete   bool
}

func (c *SyncCommand) Synopsis() string {
	return "Synchronize a remote category tree with a target list"
}

func (c *SyncCommand) Help() string {
	return `Usage: cashctrl categories sync -target <file>

  Reconciles the remote category tree of a resource with the target paths
  read from a file (one slash-delimited path per line, e.g. "/Assets/2024").
  Missing categories and their ancestors are created; with -delete, remote
  categories covering no target path are removed first.` +
		c.Flags().Help()
}

func (c *SyncCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("sync", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the CLI config file.",
	)
	f.StringVar(
		&c.flagResource, "resource", "file",
		"Resource type whose category tree to synchronize.",
	)
	f.StringVar(
		&c.flagTarget, "target", "",
		"(Required) File with the target category paths, one per line.",
	)
	f.BoolVar(
		&c.flagDelete, "delete", false,
		"Delete remote categories not covered by any target path.",
	)

	return f
}

func (c *SyncCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagTarget == "" {
		ui.Error("target flag is required")
		return 1
	}
	target, err := readTargetPaths(c.flagTarget)
	if err != nil {
		ui.Error(fmt.Sprintf("error reading target file: %v", err))
		return 1
	}

	client, err := c.NewClient(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating client: %v", err))
		return 1
	}

	err = client.UpdateCategories(context.Background(), c.flagResource, target, c.flagDelete)
	if err != nil {
		ui.Error(fmt.Sprintf("error synchronizing categories: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("Synchronized %d target paths", len(target)))
	return 0
}

// readTargetPaths reads a newline-delimited path list, skipping blank lines
// and comments.
func readTargetPaths(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var paths []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, scanner.Err()
}
