package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/typedgp/apis/config/v1alpha1"
)

type options struct {
	configPath string
	overrides  v1alpha1.PopulationConfig
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path to a PopulationConfig file. Flags override its values.")
	fs.StringVar(&o.overrides.Problem, "problem", "", "Benchmark problem to run.")
	fs.IntVar(&o.overrides.MaxDepth, "max-depth", 0, "Maximum number of levels of a generated tree.")
	fs.IntVar(&o.overrides.PopulationSize, "population-size", 0, "Number of individuals to generate.")
	fs.Uint64Var(&o.overrides.Seed, "seed", 0, "Seed of the random source.")
	fs.IntVar(&o.overrides.Concurrency, "concurrency", 0, "Number of solutions evaluated in parallel.")
	fs.IntVar(&o.overrides.ContainmentCacheSize, "containment-cache-size", 0, "Number of memoized type containment results.")
	fs.StringVar(&o.overrides.PlotPath, "plot", "", "Write an HTML scatter plot of the population to this path.")
	fs.StringVar(&o.overrides.TreePlotPath, "plot-tree", "", "Write an HTML diagram of the best tree of the first Pareto front to this path.")
	fs.StringVar(&o.overrides.DumpPath, "dump", "", "Write a PopulationReport of the first Pareto front to this path.")
}

// config loads the configuration file, if any, and applies the flags that
// were set on the command line.
func (o *options) config(fs *pflag.FlagSet) (*v1alpha1.PopulationConfig, error) {
	var (
		cfg *v1alpha1.PopulationConfig
		err error
	)
	if o.configPath != "" {
		cfg, err = v1alpha1.Load(o.configPath)
	} else {
		cfg, err = v1alpha1.Decode([]byte("{}"))
	}
	if err != nil {
		return nil, err
	}

	if fs.Changed("problem") {
		cfg.Problem = o.overrides.Problem
	}
	if fs.Changed("max-depth") {
		cfg.MaxDepth = o.overrides.MaxDepth
	}
	if fs.Changed("population-size") {
		cfg.PopulationSize = o.overrides.PopulationSize
	}
	if fs.Changed("seed") {
		cfg.Seed = o.overrides.Seed
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = o.overrides.Concurrency
	}
	if fs.Changed("containment-cache-size") {
		cfg.ContainmentCacheSize = o.overrides.ContainmentCacheSize
	}
	if fs.Changed("plot") {
		cfg.PlotPath = o.overrides.PlotPath
	}
	if fs.Changed("plot-tree") {
		cfg.TreePlotPath = o.overrides.TreePlotPath
	}
	if fs.Changed("dump") {
		cfg.DumpPath = o.overrides.DumpPath
	}

	if errs := v1alpha1.ValidatePopulationConfig(cfg); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return cfg, nil
}

func main() {
	os.Exit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	defer klog.Flush()

	fs := pflag.NewFlagSet("typedgp", pflag.ContinueOnError)
	goflags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(goflags)
	fs.AddGoFlagSet(goflags)

	o := &options{}
	o.addFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := o.config(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := klog.NewKlogr()
	if err := run(ctx, logger, cfg, os.Stdout); err != nil {
		logger.Error(err, "Run failed", "problem", cfg.Problem)
		return 1
	}
	return 0
}
