package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"

	flagstate "github.com/goliatone/go-flagstate"
)

// ErrMissingFeature is returned when a feature state payload has no feature id.
var ErrMissingFeature = errors.New("hydrate: feature state has no feature")

// FlattenFeature replaces a nested {"id": ..., "name": ...} feature object with
// its id, as returned by identity feature state endpoints.
func FlattenFeature(_ Context, payload map[string]any) (map[string]any, error) {
	nested, ok := payload["feature"].(map[string]any)
	if !ok {
		return payload, nil
	}
	id, ok := nested["id"]
	if !ok {
		return nil, fmt.Errorf("nested feature without id")
	}
	payload["feature"] = id
	return payload, nil
}

// UnwrapStateValue converts a typed backend value object stored under
// feature_state_value into the equivalent JSON scalar.
func UnwrapStateValue(_ Context, payload map[string]any) (map[string]any, error) {
	raw, ok := payload["feature_state_value"].(map[string]any)
	if !ok {
		return payload, nil
	}
	buffer, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var wire flagstate.WireValue
	if err := json.Unmarshal(buffer, &wire); err != nil {
		return nil, fmt.Errorf("feature_state_value: %w", err)
	}
	payload["feature_state_value"] = wire.Value().Interface()
	return payload, nil
}

// ExpandFeatureSegment turns a bare feature_segment id into an object so the
// record still reads as segment scoped. Segment and priority are filled from
// the sibling segment and priority keys when present.
func ExpandFeatureSegment(_ Context, payload map[string]any) (map[string]any, error) {
	switch id := payload["feature_segment"].(type) {
	case float64, json.Number:
		expanded := map[string]any{"id": id}
		if segment, ok := payload["segment"]; ok {
			expanded["segment"] = segment
		}
		if priority, ok := payload["priority"]; ok {
			expanded["priority"] = priority
		}
		payload["feature_segment"] = expanded
		delete(payload, "segment")
		delete(payload, "priority")
	}
	return payload, nil
}

// RequireFeature rejects feature states that do not name a feature.
func RequireFeature(_ Context, state *flagstate.FeatureState) error {
	if state == nil || state.Feature == 0 {
		return ErrMissingFeature
	}
	return nil
}

// NewFeatureStateDecoder returns a decoder for raw feature state payloads with
// the backend normalisation hooks installed.
func NewFeatureStateDecoder(opts ...DecoderOption[flagstate.FeatureState]) *Decoder[flagstate.FeatureState] {
	base := []DecoderOption[flagstate.FeatureState]{
		WithPreHook[flagstate.FeatureState](FlattenFeature),
		WithPreHook[flagstate.FeatureState](UnwrapStateValue),
		WithPreHook[flagstate.FeatureState](ExpandFeatureSegment),
		WithPostHook[flagstate.FeatureState](RequireFeature),
	}
	return NewDecoder(append(base, opts...)...)
}

// NewProjectFlagDecoder returns a decoder for raw project flag payloads.
func NewProjectFlagDecoder(opts ...DecoderOption[flagstate.ProjectFlag]) *Decoder[flagstate.ProjectFlag] {
	return NewDecoder(opts...)
}

// NewSegmentDecoder returns a decoder for raw segment payloads.
func NewSegmentDecoder(opts ...DecoderOption[flagstate.Segment]) *Decoder[flagstate.Segment] {
	return NewDecoder(opts...)
}
