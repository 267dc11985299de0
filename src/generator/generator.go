package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"facility_location/src/uflp"
	"facility_location/src/uflp/oracles"

	"github.com/golang/glog"
)

// options holds the command line values; only the flags that were set
// explicitly override the configuration file.
type options struct {
	configPath   string
	outPath      string
	numClient    int
	numFacility  int
	numSamples   int
	costPolicy   string
	oracle       string
	seed         int64
	workers      int
	onFailure    string
	solveTimeout time.Duration
	metricsPath  string
	manifestPath string
}

func (opts *options) apply(cfg *uflp.Config, name string) {
	switch name {
	case "out":
		cfg.OutputPath = opts.outPath
	case "clients":
		cfg.NumClient = opts.numClient
	case "facilities":
		cfg.NumFacility = opts.numFacility
	case "samples":
		cfg.NumSamples = opts.numSamples
	case "cost":
		cfg.CostPolicy = opts.costPolicy
	case "oracle":
		cfg.OracleName = opts.oracle
	case "seed":
		cfg.Seed = opts.seed
	case "workers":
		cfg.Workers = opts.workers
	case "on-failure":
		cfg.OnFailure = uflp.FailurePolicy(opts.onFailure)
	case "timeout":
		cfg.SolveTimeout = opts.solveTimeout
	case "metrics":
		cfg.MetricsPath = opts.metricsPath
	case "manifest":
		cfg.ManifestPath = opts.manifestPath
	}
}

func main() {
	var opts options
	def := uflp.DefaultConfig()

	flag.StringVar(&opts.configPath, "config", "", "A YAML file with the run configuration")
	flag.StringVar(&opts.outPath, "out", def.OutputPath, "The dataset file, records are appended")
	flag.IntVar(&opts.numClient, "clients", def.NumClient, "The number of clients per instance")
	flag.IntVar(&opts.numFacility, "facilities", def.NumFacility, "The number of candidate facilities per instance")
	flag.IntVar(&opts.numSamples, "samples", def.NumSamples, "The number of samples to generate")
	flag.StringVar(&opts.costPolicy, "cost", def.CostPolicy, "The facility opening cost policy, \"constant:v\" or \"uniform:min,max\"")
	flag.StringVar(&opts.oracle, "oracle", def.OracleName, fmt.Sprintf("The optimization oracle, one of %v", oracles.Names))
	flag.Int64Var(&opts.seed, "seed", def.Seed, "The random seed, 0 uses the default seed")
	flag.IntVar(&opts.workers, "workers", def.Workers, "The number of samples solved in parallel")
	flag.StringVar(&opts.onFailure, "on-failure", string(def.OnFailure), "What to do when the oracle fails: abort or skip")
	flag.DurationVar(&opts.solveTimeout, "timeout", def.SolveTimeout, "The time limit of a single solve, 0 for none")
	flag.StringVar(&opts.metricsPath, "metrics", "", "Write Prometheus metrics to this file after the run")
	flag.StringVar(&opts.manifestPath, "manifest", "", "Write a YAML run manifest to this file")

	flag.Parse()
	defer glog.Flush()

	cfg := def
	if opts.configPath != "" {
		var err error
		if cfg, err = uflp.LoadConfig(opts.configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			glog.Flush()
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		opts.apply(&cfg, f.Name)
	})

	oracle, err := oracles.ByName(cfg.OracleName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
	cfg.Oracle = oracle

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := uflp.Generate(ctx, cfg)
	if report != nil {
		fmt.Printf("Run %v: %d/%d samples written to %v, %d skipped, %v\n",
			report.RunID, report.Written, report.Requested, cfg.OutputPath, report.Skipped,
			report.Finished.Sub(report.Started).Round(time.Millisecond))
		for _, f := range report.Failures {
			fmt.Fprintf(os.Stderr, "Skipped: %v\n", f)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		stop()
		glog.Flush()
		os.Exit(1)
	}
}
