package flagstate

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrOverallocated is returned when multivariate weights sum above 100.
	ErrOverallocated = errors.New("flagstate: multivariate allocation exceeds 100%")
	// ErrAllocationOutOfRange is returned when a single weight is outside 0-100.
	ErrAllocationOutOfRange = errors.New("flagstate: percentage allocation out of range")
)

// ValidationError describes a single save-blocking allocation problem.
type ValidationError struct {
	Field          string
	Message        string
	TranslationKey string
	Err            error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects allocation problems.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, err.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (ve ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(ve))
	for _, err := range ve {
		out = append(out, err)
	}
	return out
}

// Has reports whether any error targets field.
func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Allocation is the outcome of checking multivariate weights. It is a plain
// value so callers can render it without handling an error path.
type Allocation struct {
	Total   float64
	Control float64
	Invalid bool
	Errors  ValidationErrors
}

// Err returns the collected validation errors or nil when the allocation is
// valid.
func (a Allocation) Err() error {
	if len(a.Errors) == 0 {
		return nil
	}
	return a.Errors
}

// ControlPercentage returns 100 minus the sum of the options' default
// allocations. A negative result means the options are overallocated and must
// be rejected by the caller. An empty list returns 100.
func ControlPercentage(options []MultivariateOption) float64 {
	return ControlPercentageFor(options, nil)
}

// ControlPercentageFor is ControlPercentage using the environment-specific
// weight of each option when values supplies one.
func ControlPercentageFor(options []MultivariateOption, values []MultivariateFeatureStateValue) float64 {
	return roundAllocation(100 - allocationTotal(options, values))
}

// CheckAllocation validates the effective weights of options. Overallocation
// is reported, never clamped.
func CheckAllocation(options []MultivariateOption, values []MultivariateFeatureStateValue) Allocation {
	overrides := weightsByOption(values)
	result := Allocation{}
	for _, option := range options {
		weight := option.DefaultPercentageAllocation
		if override, ok := overrides[option.ID]; ok {
			weight = override
		}
		if weight < 0 || weight > 100 {
			result.Errors = append(result.Errors, ValidationError{
				Field:          fmt.Sprintf("multivariate_options.%d", option.ID),
				Message:        fmt.Sprintf("percentage allocation %s must be between 0 and 100", formatNumber(weight)),
				TranslationKey: "flagstate.allocation.out_of_range",
				Err:            ErrAllocationOutOfRange,
			})
		}
	}

	result.Total = roundAllocation(allocationTotal(options, values))
	result.Control = roundAllocation(100 - result.Total)
	if result.Control < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:          "control_value",
			Message:        fmt.Sprintf("allocations total %s%%, leaving %s%% for the control value", formatNumber(result.Total), formatNumber(result.Control)),
			TranslationKey: "flagstate.allocation.overallocated",
			Err:            ErrOverallocated,
		})
	}
	result.Invalid = len(result.Errors) > 0
	return result
}

// ControlLabel returns the heading used for the base value: "Value" when the
// feature has no variations, otherwise "Control Value - X%".
func ControlLabel(options []MultivariateOption, control float64) string {
	if len(options) == 0 {
		return "Value"
	}
	return fmt.Sprintf("Control Value - %s%%", formatNumber(control))
}

func allocationTotal(options []MultivariateOption, values []MultivariateFeatureStateValue) float64 {
	overrides := weightsByOption(values)
	total := 0.0
	for _, option := range options {
		if override, ok := overrides[option.ID]; ok {
			total += override
			continue
		}
		total += option.DefaultPercentageAllocation
	}
	return total
}

func weightsByOption(values []MultivariateFeatureStateValue) map[int]float64 {
	if len(values) == 0 {
		return nil
	}
	out := make(map[int]float64, len(values))
	for _, value := range values {
		out[value.MultivariateOption] = value.PercentageAllocation
	}
	return out
}

// roundAllocation trims float noise (33.3+33.3+33.4) to six decimal places.
func roundAllocation(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
