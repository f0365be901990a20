package wsfanout

import "encoding/json"

// marshalFlat merges a typed payload's fields with the {type, timestamp}
// envelope spec.md §6 describes, so the wire shape is one flat JSON object
// rather than a nested "payload" field.
func marshalFlat(typ string, timestamp int64, payload any) ([]byte, error) {
	out := map[string]any{"type": typ, "timestamp": timestamp}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		for k, v := range fields {
			out[k] = v
		}
	}
	return json.Marshal(out)
}
