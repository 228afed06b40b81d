/*
This command starts a reverse proxy applying the header mutations of an
Envoy v3 route configuration to the requests and the responses.

For the list of command line options, run:

	scopedheaders -help

For details, please see the documentation of the root scopedheaders
package.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/zalando/scopedheaders"
	"github.com/zalando/scopedheaders/config"
)

var (
	version string
	commit  string
)

func main() {
	cfg := config.NewConfig()
	if err := cfg.Parse(); err != nil {
		log.Fatalf("Error processing config: %s", err)
	}

	if cfg.PrintVersion {
		fmt.Printf("scopedheaders version %s (commit: %s)\n", version, commit)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scopedheaders.RunWithContext(ctx, cfg.ToOptions()); err != nil {
		log.Fatal(err)
	}
}
