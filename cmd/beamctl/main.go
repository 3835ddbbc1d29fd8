package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/beam.report/internal/config"
	"github.com/banshee-data/beam.report/internal/dispatch"
	"github.com/banshee-data/beam.report/internal/monitoring"
)

func main() {
	configPath := flag.String("config", "", "JSON configuration file")
	endpoint := flag.String("endpoint", "", "XML-RPC control endpoint URL")
	retries := flag.Int("retries", -1, "retry transport failures this many times")
	quiet := flag.Bool("quiet", false, "suppress diagnostic log output")
	flag.Usage = func() {
		dispatch.PrintUsage(os.Stderr)
	}
	flag.Parse()

	if *quiet {
		monitoring.SetLogger(nil)
	}

	cfg := config.EmptyConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "beamctl: error: kind=invalid_parameter: %v\n", err)
			os.Exit(dispatch.ExitInvalidParam)
		}
		cfg = loaded
	}

	// Command-line flags override config file values.
	if *endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if *retries >= 0 {
		cfg.Retries = retries
	}

	os.Exit(dispatch.Run(flag.Args(), dispatch.Options{Config: cfg}))
}
