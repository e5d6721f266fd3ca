package util

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
)

// TreeData converts t into the nested go-echarts representation. Every node
// is labelled with its operator signature and carries its depth as value.
func TreeData(t *tree.Tree) *opts.TreeData {
	converted := make(map[*tree.Node]*opts.TreeData, t.Len())
	var root *opts.TreeData
	// Pre-order visits siblings in position order, so appending keeps it.
	for n := range t.PreOrder() {
		d := &opts.TreeData{
			Name:  n.Operator().SignatureString(),
			Value: n.Depth(),
		}
		if n.IsTerminal() {
			d.Symbol = "rect"
		}
		converted[n] = d
		if p := n.Parent(); p != nil {
			converted[p].Children = append(converted[p].Children, d)
		} else {
			root = d
		}
	}
	return root
}

// PlotTree renders t as a top-down tree diagram and writes it as HTML to
// path.
func PlotTree(t *tree.Tree, path string) error {
	if t == nil {
		return fmt.Errorf("no tree to plot")
	}

	chart := charts.NewTree()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    t.String(),
			Subtitle: fmt.Sprintf("%d nodes, %d levels", t.Len(), t.Depth()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	chart.AddSeries("tree", []opts.TreeData{*TreeData(t)},
		charts.WithTreeOpts(opts.TreeChart{
			Layout:           "orthogonal",
			Orient:           "TB",
			InitialTreeDepth: -1,
		}),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "top",
		}),
	)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return chart.Render(f)
}
