// Package flagstate decides which feature state is authoritative for a
// feature in an environment and validates multivariate allocations.
//
// Resolution precedence is identity override, then segment overrides by
// ascending priority (0 wins), then the environment default. Priorities must
// be unique per feature; ties fail with ErrPriorityConflict. Resolver adds a
// SegmentMatcher so only segments the identity belongs to take part, and
// RuleMatcher evaluates segment rules with expr (default), CEL, or JavaScript
// when built with the js_eval tag.
//
// Values are typed: Value is a tagged union of null, bool, number and string
// and compares strictly. Stringify and Normalize are the only places values
// are rendered or coerced for diffing.
//
// Diffing lives in the linediff, featurediff and compare subpackages.
package flagstate
