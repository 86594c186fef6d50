package layering

import (
	"errors"
	"fmt"
	"slices"
)

// Level identifies the precedence category of an override layer. Higher levels
// override lower levels when resolving.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelEnvironment is the weakest layer (the environment default state).
	LevelEnvironment
	// LevelSegment holds segment overrides, ordered among themselves by priority.
	LevelSegment
	// LevelIdentity is the strongest layer (a per-identity override).
	LevelIdentity
)

func (l Level) String() string {
	switch l {
	case LevelEnvironment:
		return "environment"
	case LevelSegment:
		return "segment"
	case LevelIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string representation into the corresponding Level.
// Returns LevelUnknown for unrecognised values.
func ParseLevel(value string) Level {
	switch value {
	case "environment", "ENVIRONMENT":
		return LevelEnvironment
	case "segment", "SEGMENT":
		return LevelSegment
	case "identity", "IDENTITY":
		return LevelIdentity
	default:
		return LevelUnknown
	}
}

var (
	// ErrPriorityConflict indicates two segment layers share a priority.
	ErrPriorityConflict = errors.New("layering: segment priorities must be unique")
	// ErrDuplicateLevel indicates more than one environment or identity layer.
	ErrDuplicateLevel = errors.New("layering: level allows a single layer")
	// ErrNegativePriority indicates a segment layer with a priority below zero.
	ErrNegativePriority = errors.New("layering: priority must be non-negative")
)

// Layer pairs a precedence slot with the value it contributes. Priority is only
// meaningful for LevelSegment, where lower numbers win.
type Layer[T any] struct {
	Level    Level
	Priority int
	Key      string
	Value    T
}

// Chain describes the ordered layering sequence from strongest to weakest.
type Chain[T any] struct {
	ordered []Layer[T]
}

// NewChain validates and orders layers: identity first, then segments by
// ascending priority, then the environment default. Layers with LevelUnknown
// are dropped. Values are held by reference, never copied.
func NewChain[T any](layers ...Layer[T]) (Chain[T], error) {
	filtered := make([]Layer[T], 0, len(layers))
	counts := map[Level]int{}
	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		if layer.Level == LevelSegment && layer.Priority < 0 {
			return Chain[T]{}, fmt.Errorf("%w: %s=%d", ErrNegativePriority, layer.Key, layer.Priority)
		}
		counts[layer.Level]++
		if layer.Level != LevelSegment && counts[layer.Level] > 1 {
			return Chain[T]{}, fmt.Errorf("%w: %s", ErrDuplicateLevel, layer.Level)
		}
		filtered = append(filtered, layer)
	}

	slices.SortStableFunc(filtered, func(a, b Layer[T]) int {
		if a.Level != b.Level {
			if a.Level > b.Level {
				return -1
			}
			return 1
		}
		if a.Level != LevelSegment {
			return 0
		}
		return a.Priority - b.Priority
	})

	for i := 1; i < len(filtered); i++ {
		prev, cur := filtered[i-1], filtered[i]
		if prev.Level == LevelSegment && cur.Level == LevelSegment && prev.Priority == cur.Priority {
			return Chain[T]{}, fmt.Errorf("%w: %s and %s share priority %d", ErrPriorityConflict, prev.Key, cur.Key, cur.Priority)
		}
	}

	return Chain[T]{ordered: filtered}, nil
}

// Ordered returns the layering sequence from strongest (index 0) to weakest.
func (c Chain[T]) Ordered() []Layer[T] {
	out := make([]Layer[T], len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of layers in the chain.
func (c Chain[T]) Len() int {
	return len(c.ordered)
}

// Strongest returns the first layer in the chain.
func (c Chain[T]) Strongest() (Layer[T], bool) {
	if len(c.ordered) == 0 {
		return Layer[T]{}, false
	}
	return c.ordered[0], true
}

// Weakest returns the final layer in the chain.
func (c Chain[T]) Weakest() (Layer[T], bool) {
	if len(c.ordered) == 0 {
		return Layer[T]{}, false
	}
	return c.ordered[len(c.ordered)-1], true
}
