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
	"fmt"
	"os"

	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"
)

// ValidatePopulationConfig checks a defaulted PopulationConfig.
func ValidatePopulationConfig(obj *PopulationConfig) field.ErrorList {
	var allErrs field.ErrorList

	if obj.APIVersion != APIVersion {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("apiVersion"), obj.APIVersion, []string{APIVersion}))
	}
	if obj.Kind != KindPopulationConfig {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("kind"), obj.Kind, []string{KindPopulationConfig}))
	}
	if obj.MaxDepth < 1 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("maxDepth"), obj.MaxDepth, "must be at least 1"))
	}
	if obj.PopulationSize < 1 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("populationSize"), obj.PopulationSize, "must be at least 1"))
	}
	if obj.Concurrency < 1 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("concurrency"), obj.Concurrency, "must be at least 1"))
	}
	if obj.ContainmentCacheSize < 1 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("containmentCacheSize"), obj.ContainmentCacheSize, "must be at least 1"))
	}
	return allErrs
}

// Load reads a PopulationConfig from a YAML file, applies defaults and
// validates it. Unknown fields are rejected.
func Load(path string) (*PopulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode is Load for in-memory documents.
func Decode(data []byte) (*PopulationConfig, error) {
	obj := &PopulationConfig{}
	if err := yaml.UnmarshalStrict(data, obj); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", KindPopulationConfig, err)
	}
	SetDefaults_PopulationConfig(obj)
	if errs := ValidatePopulationConfig(obj); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return obj, nil
}
