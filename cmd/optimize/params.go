// Package main provides CMA-ES tuning of the flocking rule parameters.
package main

import (
	"github.com/pthm-cable/flock/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "cohesion_distance", Path: "rules.cohesion_distance", Min: 2, Max: 10, Default: 5},
			{Name: "separation_distance", Path: "rules.separation_distance", Min: 1, Max: 5, Default: 3},
			{Name: "alignment_distance", Path: "rules.alignment_distance", Min: 2, Max: 10, Default: 5},
			{Name: "cohesion_scale", Path: "rules.cohesion_scale", Min: 0.001, Max: 0.05, Default: 0.01},
			{Name: "separation_scale", Path: "rules.separation_scale", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "alignment_scale", Path: "rules.alignment_scale", Min: 0.01, Max: 0.5, Default: 0.1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Rules.CohesionDistance = c[0]
	cfg.Rules.SeparationDistance = c[1]
	cfg.Rules.AlignmentDistance = c[2]
	cfg.Rules.CohesionScale = c[3]
	cfg.Rules.SeparationScale = c[4]
	cfg.Rules.AlignmentScale = c[5]
	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Rules.CohesionDistance,
		cfg.Rules.SeparationDistance,
		cfg.Rules.AlignmentDistance,
		cfg.Rules.CohesionScale,
		cfg.Rules.SeparationScale,
		cfg.Rules.AlignmentScale,
	}
}
