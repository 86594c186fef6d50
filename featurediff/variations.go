package featurediff

import (
	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/linediff"
)

// VariationDiff is the weight diff of one multivariate option. Option is zero
// for the control row.
type VariationDiff struct {
	Option  int                `json:"option"`
	Label   string             `json:"label"`
	Weight  []linediff.Segment `json:"weight"`
	Changed bool               `json:"changed"`
}

// DiffVariations diffs the effective weight of every option between two sets
// of environment weights, followed by the control row. An option without an
// environment weight falls back to its default allocation.
func DiffVariations(options []flagstate.MultivariateOption, oldValues, newValues []flagstate.MultivariateFeatureStateValue) []VariationDiff {
	oldWeights := weightsByOption(oldValues)
	newWeights := weightsByOption(newValues)

	out := make([]VariationDiff, 0, len(options)+1)
	for _, option := range options {
		oldWeight := effectiveWeight(option, oldWeights)
		newWeight := effectiveWeight(option, newWeights)
		out = append(out, variationDiff(option.ID, flagstate.Stringify(option.Value), oldWeight, newWeight))
	}

	oldControl := flagstate.ControlPercentageFor(options, oldValues)
	newControl := flagstate.ControlPercentageFor(options, newValues)
	out = append(out, variationDiff(0, flagstate.ControlLabel(options, newControl), oldControl, newControl))
	return out
}

// VariationChanges counts the rows with a weight change.
func VariationChanges(diffs []VariationDiff) int {
	total := 0
	for _, diff := range diffs {
		if diff.Changed {
			total++
		}
	}
	return total
}

func variationDiff(option int, label string, oldWeight, newWeight float64) VariationDiff {
	weight := linediff.Diff(renderWeight(oldWeight), renderWeight(newWeight))
	return VariationDiff{
		Option:  option,
		Label:   label,
		Weight:  weight,
		Changed: linediff.HasChanges(weight),
	}
}

func weightsByOption(values []flagstate.MultivariateFeatureStateValue) map[int]float64 {
	weights := make(map[int]float64, len(values))
	for _, value := range values {
		weights[value.MultivariateOption] = value.PercentageAllocation
	}
	return weights
}

func effectiveWeight(option flagstate.MultivariateOption, weights map[int]float64) float64 {
	if weight, ok := weights[option.ID]; ok {
		return weight
	}
	return option.DefaultPercentageAllocation
}

func renderWeight(weight float64) string {
	return flagstate.Stringify(flagstate.Number(weight)) + "%"
}
