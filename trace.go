package flagstate

import (
	"encoding/json"

	layering "github.com/goliatone/go-flagstate/layering"
)

// Trace captures how each override layer was considered while resolving a
// feature, strongest first.
type Trace struct {
	Feature int          `json:"feature"`
	Layers  []Provenance `json:"layers"`
}

// Provenance details one layer's contribution to a resolution.
type Provenance struct {
	Level     string `json:"level"`
	StateID   int    `json:"state_id,omitempty"`
	SegmentID int    `json:"segment_id,omitempty"`
	Priority  *int   `json:"priority,omitempty"`
	Evaluated bool   `json:"evaluated"`
	Active    bool   `json:"active"`
	Selected  bool   `json:"selected"`
}

// Selected returns the provenance entry of the winning layer.
func (t Trace) Selected() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Selected {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

func provenanceFor(layer layering.Layer[*FeatureState]) Provenance {
	entry := Provenance{Level: layer.Level.String()}
	if layer.Value != nil {
		entry.StateID = layer.Value.ID
		if layer.Value.FeatureSegment != nil {
			priority := layer.Value.FeatureSegment.Priority
			entry.SegmentID = layer.Value.FeatureSegment.Segment
			entry.Priority = &priority
		}
	}
	return entry
}
