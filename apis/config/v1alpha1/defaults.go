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

const (
	DefaultProblem        = "Quartic"
	DefaultMaxDepth       = 6
	DefaultPopulationSize = 500
	DefaultSeed           = 1
	DefaultConcurrency    = 4
	// DefaultContainmentCacheSize matches the type lattice's own default
	DefaultContainmentCacheSize = 1 << 16
)

// SetDefaults_PopulationConfig sets the default values of a PopulationConfig.
func SetDefaults_PopulationConfig(obj *PopulationConfig) {
	if obj.APIVersion == "" {
		obj.APIVersion = APIVersion
	}
	if obj.Kind == "" {
		obj.Kind = KindPopulationConfig
	}
	if obj.Problem == "" {
		obj.Problem = DefaultProblem
	}
	if obj.MaxDepth == 0 {
		obj.MaxDepth = DefaultMaxDepth
	}
	if obj.PopulationSize == 0 {
		obj.PopulationSize = DefaultPopulationSize
	}
	if obj.Seed == 0 {
		obj.Seed = DefaultSeed
	}
	if obj.Concurrency == 0 {
		obj.Concurrency = DefaultConcurrency
	}
	if obj.ContainmentCacheSize == 0 {
		obj.ContainmentCacheSize = DefaultContainmentCacheSize
	}
}
