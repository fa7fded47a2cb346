// json2kif converts a chushogi JSON action list into a KIF move list
// written next to the input as <name>.x.kif.
package main

import (
	"fmt"
	"os"

	"github.com/sheerluck/csa2kif/internal/obslog"
	"github.com/sheerluck/csa2kif/pkg/kif"
)

func main() {
	if len(os.Args) != 2 {
		fatal(fmt.Errorf("usage: %s <record.json>", os.Args[0]))
	}
	cfg, err := kif.ResolveConfig()
	if err != nil {
		fatal(err)
	}
	logger := obslog.New(cfg.LogLevel)
	defer logger.Sync()

	if _, err := kif.ConvertFile(os.Args[1], kif.FormatJSON, cfg, logger); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
