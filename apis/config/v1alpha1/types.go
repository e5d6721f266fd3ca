/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// GroupName is the API group of the typedgp configuration objects
	GroupName = "typedgp.x-k8s.io"
	// Version is the version of this package's objects
	Version = "v1alpha1"

	// KindPopulationConfig is the kind of PopulationConfig objects
	KindPopulationConfig = "PopulationConfig"
	// KindPopulationReport is the kind of PopulationReport objects
	KindPopulationReport = "PopulationReport"
)

// APIVersion is the apiVersion of this package's objects
var APIVersion = GroupName + "/" + Version

// PopulationConfig configures the generation and evaluation of an initial
// population of typed trees
type PopulationConfig struct {
	metav1.TypeMeta `json:",inline"`

	// Problem is the name of the benchmark problem to run
	Problem string `json:"problem,omitempty"`

	// MaxDepth is the maximum number of levels of a generated tree
	MaxDepth int `json:"maxDepth,omitempty"`

	// PopulationSize is the number of individuals requested from ramped half-and-half.
	// The population may end up smaller since duplicates are dropped.
	PopulationSize int `json:"populationSize,omitempty"`

	// Seed seeds the random source, so that a configuration is reproducible
	Seed uint64 `json:"seed,omitempty"`

	// Concurrency is the number of solutions evaluated in parallel
	Concurrency int `json:"concurrency,omitempty"`

	// ContainmentCacheSize bounds the number of memoized type containment results
	ContainmentCacheSize int `json:"containmentCacheSize,omitempty"`

	// PlotPath is where to write an HTML scatter plot of the population, if set
	PlotPath string `json:"plotPath,omitempty"`

	// TreePlotPath is where to write an HTML diagram of the best tree of the first
	// Pareto front, if set
	TreePlotPath string `json:"treePlotPath,omitempty"`

	// DumpPath is where to write the PopulationReport of the first Pareto front, if set
	DumpPath string `json:"dumpPath,omitempty"`
}

// PopulationReport lists the solutions of a population ranked by Pareto front
type PopulationReport struct {
	metav1.TypeMeta `json:",inline"`

	// Problem is the name of the problem the population was generated for
	Problem string `json:"problem"`

	// Seed is the seed the population was generated with
	Seed uint64 `json:"seed"`

	// GeneratedAt indicates when the population was generated
	GeneratedAt *metav1.Time `json:"generatedAt"`

	// Solutions contains the reported solutions, best front first
	Solutions []ReportedSolution `json:"solutions"`
}

// ReportedSolution is a single solution of a PopulationReport
type ReportedSolution struct {
	// Rank is the solution rank in Pareto front (1 = best)
	Rank int `json:"rank"`

	// Expression is the tree rendered as a nested call expression
	Expression string `json:"expression"`

	// Objectives maps each objective name to its weighted value
	Objectives map[string]float64 `json:"objectives"`

	// Size is the number of nodes of the tree
	Size int `json:"size"`

	// Depth is the number of levels of the tree
	Depth int `json:"depth"`

	// Tree is the serialized tree, as produced by the tree codec
	Tree string `json:"tree,omitempty"`
}
