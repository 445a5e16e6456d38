// Package cell holds the pure battery-cell domain logic: the chemistry
// specification table, the charge estimator and the safety evaluator.
// Everything here is stateless and total over finite inputs; validation
// of operator input happens at the configuration boundary instead.
package cell

import (
	"fmt"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

// Spec is the per-chemistry voltage envelope of a single cell.
type Spec struct {
	Nominal float64
	Min     float64
	Max     float64
}

var specs = map[model.Chemistry]Spec{
	model.ChemistryLFP: {Nominal: 3.2, Min: 2.8, Max: 3.6},
	model.ChemistryNMC: {Nominal: 3.6, Min: 3.0, Max: 4.2},
	model.ChemistryLTO: {Nominal: 2.4, Min: 1.8, Max: 2.8},
}

// SpecFor returns the voltage envelope for a known chemistry. An unknown
// chemistry here is a programming error: configuration validation is the
// only entry point for chemistry tags and it rejects unknown ones eagerly.
func SpecFor(c model.Chemistry) Spec {
	spec, ok := specs[c]
	if !ok {
		panic(fmt.Sprintf("cell: no specification for chemistry %q", c))
	}
	return spec
}
