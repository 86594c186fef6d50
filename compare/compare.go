// Package compare partitions a project's flags into changed and unchanged
// rows by comparing the environment-default states of two environments.
package compare

import (
	"slices"
	"strings"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/featurediff"
)

// Row is the comparison of one flag across the left and right environments.
// Left and Right are nil when the environment has no default state for the
// flag; the enabled and value columns then read false and Undefined.
type Row struct {
	ProjectFlag    flagstate.ProjectFlag   `json:"project_flag"`
	Left           *flagstate.FeatureState `json:"left_environment_flag,omitempty"`
	Right          *flagstate.FeatureState `json:"right_environment_flag,omitempty"`
	LeftEnabled    bool                    `json:"left_enabled"`
	RightEnabled   bool                    `json:"right_enabled"`
	LeftValue      flagstate.Value         `json:"left_value"`
	RightValue     flagstate.Value         `json:"right_value"`
	EnabledChanged bool                    `json:"enabled_changed"`
	ValueChanged   bool                    `json:"value_changed"`
}

// Changed reports whether either column differs.
func (r Row) Changed() bool { return r.EnabledChanged || r.ValueChanged }

// Diff renders the row as a line diff of the two default states.
func (r Row) Diff() featurediff.StateDiff {
	return featurediff.DiffDefault(r.Left, r.Right)
}

// Result holds the rows in flag name order.
type Result struct {
	Changed   []Row `json:"changed"`
	Unchanged []Row `json:"unchanged"`
}

// Rows returns every row, changed first.
func (r Result) Rows() []Row {
	out := make([]Row, 0, len(r.Changed)+len(r.Unchanged))
	out = append(out, r.Changed...)
	return append(out, r.Unchanged...)
}

// Find returns the row for the named flag.
func (r Result) Find(name string) (Row, bool) {
	for _, row := range r.Rows() {
		if row.ProjectFlag.Name == name {
			return row, true
		}
	}
	return Row{}, false
}

// Compare compares the default states of every flag between left and right.
// Flags are visited sorted by name (stable, byte-wise) on a copy of the
// input. Value changes use typed equality, so Bool(false) and
// String("false") differ here even though their line diffs do not.
func Compare(flags []flagstate.ProjectFlag, left, right []flagstate.FeatureState) Result {
	sorted := slices.Clone(flags)
	slices.SortStableFunc(sorted, func(a, b flagstate.ProjectFlag) int {
		return strings.Compare(a.Name, b.Name)
	})

	result := Result{
		Changed:   []Row{},
		Unchanged: []Row{},
	}
	for _, flag := range sorted {
		row := compareFlag(flag, flagstate.DefaultState(left, flag.ID), flagstate.DefaultState(right, flag.ID))
		if row.Changed() {
			result.Changed = append(result.Changed, row)
		} else {
			result.Unchanged = append(result.Unchanged, row)
		}
	}
	return result
}

func compareFlag(flag flagstate.ProjectFlag, left, right *flagstate.FeatureState) Row {
	row := Row{
		ProjectFlag: flag,
		Left:        left,
		Right:       right,
	}
	if left != nil {
		row.LeftEnabled = left.Enabled
		row.LeftValue = left.Value
	}
	if right != nil {
		row.RightEnabled = right.Enabled
		row.RightValue = right.Value
	}
	row.EnabledChanged = row.LeftEnabled != row.RightEnabled
	row.ValueChanged = !row.LeftValue.Equal(row.RightValue)
	return row
}
