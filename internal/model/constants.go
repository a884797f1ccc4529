// Package model holds the double-spike mass-balance equations and their
// analytic Jacobian.
//
// The unknowns are the spike/standard mixing fraction φ_ref and the two
// exponential mass-fractionation factors β_sple (sample) and β_mix (measured
// mix). For each isotope mass m, with a = ReferenceMass/m:
//
//	f_m = φ·R_sp + (1−φ)·R_std·a^β_sple − r_mix·a^β_mix
//
// Every evaluation reads a single Constants value, so residuals and
// derivatives can never disagree about the calibration in use.
package model

import (
	"fmt"
	"math"
)

// ReferenceMass is the denominator isotope of every ratio (95Mo).
const ReferenceMass = 95.0

// Isotope is one row of the calibration: the ratio of this mass to the
// reference mass in the spike, in the standard, and as measured in the mix.
type Isotope struct {
	Mass     float64 `yaml:"mass" json:"mass"`
	Spike    float64 `yaml:"spike" json:"spike"`
	Standard float64 `yaml:"standard" json:"standard"`
	Mix      float64 `yaml:"mix" json:"mix"`
}

// Constants is the calibration set shared by the residual and Jacobian models.
// Row order fixes equation order: Isotopes[0] is f1, Isotopes[1] is f2, ...
type Constants struct {
	ReferenceMass float64    `yaml:"reference_mass" json:"reference_mass"`
	Isotopes      [3]Isotope `yaml:"isotopes" json:"isotopes"`
}

// DefaultConstants returns the placeholder calibration for the 100/95, 98/95
// and 97/95 ratios. Replace with measured values via the config file.
func DefaultConstants() Constants {
	return Constants{
		ReferenceMass: ReferenceMass,
		Isotopes: [3]Isotope{
			{Mass: 100, Spike: 53.97511406, Standard: 0.601491655, Mix: 0.83866852},
			{Mass: 98, Spike: 3.34249274, Standard: 1.51137031, Mix: 1.628762881},
			{Mass: 97, Spike: 51.84570718, Standard: 0.598673698, Mix: 0.773076736},
		},
	}
}

// Validate reports whether the constants can be used to build the equations.
// Masses must be positive so that the fractionation base ReferenceMass/m is
// positive for any real exponent.
func (c Constants) Validate() error {
	if !positive(c.ReferenceMass) {
		return fmt.Errorf("%w: reference mass must be positive and finite, got %v", ErrInvalidConstants, c.ReferenceMass)
	}
	for i, iso := range c.Isotopes {
		if !positive(iso.Mass) {
			return fmt.Errorf("%w: isotope %d mass must be positive and finite, got %v", ErrInvalidConstants, i, iso.Mass)
		}
		ratios := []struct {
			name string
			v    float64
		}{{"spike", iso.Spike}, {"standard", iso.Standard}, {"mix", iso.Mix}}
		for _, r := range ratios {
			if math.IsNaN(r.v) || math.IsInf(r.v, 0) {
				return fmt.Errorf("%w: isotope %d (mass %v) %s ratio is not finite", ErrInvalidConstants, i, iso.Mass, r.name)
			}
		}
	}
	return nil
}

// Labels returns "100/95"-style ratio names in equation order.
func (c Constants) Labels() [3]string {
	var out [3]string
	for i, iso := range c.Isotopes {
		out[i] = fmt.Sprintf("%g/%g", iso.Mass, c.ReferenceMass)
	}
	return out
}

// base is the fractionation base ReferenceMass/m for row i.
func (c Constants) base(i int) float64 {
	return c.ReferenceMass / c.Isotopes[i].Mass
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
