package util

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
)

// PlotResults creates a scatter plot of a population in the objective space of
// the given Problem, highlighting the points of the first Pareto front and the
// problem's true front when it is known. The chart is written as HTML to path.
func PlotResults(points []framework.ObjectiveSpacePoint, firstFront []int, problem framework.Problem, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("population is empty for %s", problem.Name())
	}
	objectives := problem.Objectives()
	if len(objectives) != 2 || len(points[0]) != 2 {
		return fmt.Errorf("can only plot 2D for %s", problem.Name())
	}

	// Create scatter chart
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Population of %s", problem.Name()),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: fmt.Sprintf("%s (x%g)", objectives[0].Name, objectives[0].Weight),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: fmt.Sprintf("%s (x%g)", objectives[1].Name, objectives[1].Weight),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	onFront := make(map[int]bool, len(firstFront))
	for _, i := range firstFront {
		onFront[i] = true
	}
	var population, front []opts.ScatterData
	for i, p := range points {
		if len(p) != 2 {
			return fmt.Errorf("point %d has %d objectives, want 2", i, len(p))
		}
		if onFront[i] {
			front = append(front, opts.ScatterData{
				Value:      []float64{p[0], p[1]},
				Symbol:     "triangle",
				SymbolSize: 12,
			})
			continue
		}
		population = append(population, opts.ScatterData{
			Value:      []float64{p[0], p[1]},
			Symbol:     "circle",
			SymbolSize: 8,
		})
	}

	// Add data series
	scatter.AddSeries("Population", population).
		AddSeries("First Front", front)
	if trueParetoFront := problem.TrueParetoFront(100); trueParetoFront != nil {
		trueX := make([]opts.ScatterData, len(trueParetoFront))
		for i, p := range trueParetoFront {
			trueX[i] = opts.ScatterData{
				Value:      p,
				Symbol:     "diamond",
				SymbolSize: 6,
			}
		}
		scatter.AddSeries("True Pareto Front", trueX)
	}
	scatter.SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
		charts.WithEmphasisOpts(opts.Emphasis{}),
	)

	// Create HTML file
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return scatter.Render(f)
}
