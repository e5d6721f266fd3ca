package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/stat"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/mihai-snyk/typedgp/apis/config/v1alpha1"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/algorithms"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/benchmarks"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/util"
)

// problems maps the names accepted in a PopulationConfig to their problems.
var problems = map[string]func() framework.Problem{
	benchmarks.Name: func() framework.Problem { return benchmarks.NewQuartic(20) },
}

func problemNames() string {
	names := make([]string, 0, len(problems))
	for n := range problems {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// run generates a population for cfg, evaluates it and reports its first
// Pareto front to out.
func run(ctx context.Context, logger logr.Logger, cfg *v1alpha1.PopulationConfig, out io.Writer) error {
	ctx = klog.NewContext(ctx, logger)

	newProblem, ok := problems[cfg.Problem]
	if !ok {
		return fmt.Errorf("unknown problem %q, want one of: %s", cfg.Problem, problemNames())
	}
	problem := newProblem()
	types.SetContainmentCacheSize(cfg.ContainmentCacheSize)

	start := time.Now()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	pop, err := algorithms.RampedHalfAndHalf(ctx, cfg.MaxDepth, cfg.PopulationSize,
		problem.BasisOperators(), problem.TerminalOperators(), problem.Dtype(), problem.Objectives(), rng)
	if err != nil {
		return err
	}
	points, err := pop.Evaluate(ctx, cfg.Concurrency)
	if err != nil {
		return err
	}
	fronts := framework.NonDominatedSort(points)
	logger.V(2).Info("Population ranked", "fronts", len(fronts), "elapsed", time.Since(start))

	solutions := pop.Solutions()
	objectives := problem.Objectives()
	fmt.Fprintf(out, "%s: %s unique individuals of %s requested, %s containment results cached\n",
		problem.Name(), humanize.Comma(int64(pop.Len())), humanize.Comma(int64(cfg.PopulationSize)),
		humanize.Comma(int64(types.ContainmentCacheLen())))
	for i, o := range objectives {
		values := make([]float64, len(points))
		for j, p := range points {
			values[j] = p[i]
		}
		mean, std := stat.MeanStdDev(values, nil)
		fmt.Fprintf(out, "  %s: mean %s, std %s\n", o.Name, humanize.Ftoa(mean), humanize.Ftoa(std))
	}
	fmt.Fprintf(out, "First front (%d of %d fronts):\n", len(fronts[0]), len(fronts))
	for _, idx := range fronts[0] {
		fmt.Fprintf(out, "  %v  %s\n", []float64(points[idx]), solutions[idx])
	}

	if cfg.PlotPath != "" {
		if err := util.PlotResults(points, fronts[0], problem, cfg.PlotPath); err != nil {
			return fmt.Errorf("plotting population: %w", err)
		}
		logger.V(2).Info("Wrote plot", "path", cfg.PlotPath)
	}
	if cfg.TreePlotPath != "" {
		best := solutions[bestOf(fronts[0], points)]
		if err := util.PlotTree(best.Tree(), cfg.TreePlotPath); err != nil {
			return fmt.Errorf("plotting tree: %w", err)
		}
		logger.V(2).Info("Wrote tree diagram", "path", cfg.TreePlotPath, "tree", best)
	}
	if cfg.DumpPath != "" {
		report, err := newReport(cfg, problem, solutions, points, fronts[:1])
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.DumpPath, data, 0o644); err != nil {
			return err
		}
		logger.V(2).Info("Wrote report", "path", cfg.DumpPath, "solutions", len(report.Solutions))
	}
	return nil
}

// bestOf returns the index in front with the highest value of the first
// objective, the earliest one on ties.
func bestOf(front []int, points []framework.ObjectiveSpacePoint) int {
	best := front[0]
	for _, idx := range front[1:] {
		if points[idx][0] > points[best][0] {
			best = idx
		}
	}
	return best
}

func newReport(cfg *v1alpha1.PopulationConfig, problem framework.Problem, solutions []*framework.Solution, points []framework.ObjectiveSpacePoint, fronts [][]int) (*v1alpha1.PopulationReport, error) {
	now := metav1.Now()
	report := &v1alpha1.PopulationReport{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.APIVersion,
			Kind:       v1alpha1.KindPopulationReport,
		},
		Problem:     problem.Name(),
		Seed:        cfg.Seed,
		GeneratedAt: &now,
	}
	objectives := problem.Objectives()
	for rank, front := range fronts {
		for _, idx := range front {
			t := solutions[idx].Tree()
			serialized, err := tree.Marshal(t)
			if err != nil {
				return nil, err
			}
			values := make(map[string]float64, len(objectives))
			for i, o := range objectives {
				values[o.Name] = points[idx][i]
			}
			report.Solutions = append(report.Solutions, v1alpha1.ReportedSolution{
				Rank:       rank + 1,
				Expression: t.String(),
				Objectives: values,
				Size:       t.Len(),
				Depth:      t.Depth(),
				Tree:       string(serialized),
			})
		}
	}
	return report, nil
}
