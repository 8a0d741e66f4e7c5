package main

import (
	"os"

	"github.com/macxred/cashctrl-go/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
