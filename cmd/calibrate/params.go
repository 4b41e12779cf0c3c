package main

// ParamSpec defines a single calibrated environment parameter.
type ParamSpec struct {
	Name    string // parameter store key
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the calibrated parameters in a fixed order.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the feed radius and fish speed search space.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "feed_radius", Min: 0, Max: 5, Default: 1.0},
			{Name: "fish_speed", Min: 0, Max: 3, Default: 0.5},
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
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Values maps clamped parameter values to their store keys.
func (pv *ParamVector) Values(v []float64) map[string]float64 {
	clamped := pv.Clamp(v)
	out := make(map[string]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[spec.Name] = clamped[i]
	}
	return out
}
