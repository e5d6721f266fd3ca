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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestDecodeDefaults(t *testing.T) {
	got, err := Decode([]byte("apiVersion: typedgp.x-k8s.io/v1alpha1\nkind: PopulationConfig\nmaxDepth: 4\n"))
	require.NoError(t, err)

	want := &PopulationConfig{
		TypeMeta:             metav1.TypeMeta{APIVersion: APIVersion, Kind: KindPopulationConfig},
		Problem:              DefaultProblem,
		MaxDepth:             4,
		PopulationSize:       DefaultPopulationSize,
		Seed:                 DefaultSeed,
		Concurrency:          DefaultConcurrency,
		ContainmentCacheSize: DefaultContainmentCacheSize,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected config (-want,+got):\n%s", diff)
	}

	empty, err := Decode([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, APIVersion, empty.APIVersion)
	assert.Equal(t, DefaultMaxDepth, empty.MaxDepth)
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":    "maxDepth: 3\ngenerations: 10\n",
		"wrong kind":       "kind: SchedulingHint\n",
		"wrong version":    "apiVersion: typedgp.x-k8s.io/v2\n",
		"negative depth":   "maxDepth: -1\n",
		"negative size":    "populationSize: -5\n",
		"bad concurrency":  "concurrency: -2\n",
		"bad cache size":   "containmentCacheSize: -1\n",
		"not a document":   "maxDepth: [\n",
		"wrong field type": "maxDepth: deep\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	obj := &PopulationConfig{}
	errs := ValidatePopulationConfig(obj)
	assert.Len(t, errs, 6)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("populationSize: 20\nseed: 7\nplotPath: out.html\n"), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, got.PopulationSize)
	assert.Equal(t, uint64(7), got.Seed)
	assert.Equal(t, "out.html", got.PlotPath)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
