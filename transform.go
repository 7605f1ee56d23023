package dydactic

// Transform is a pre-validation record mutation. A Field-scoped transform
// receives the field value and applies only when the field is present; a
// record-level transform (Field == "") receives the whole mapping and must
// return a mapping.
type Transform struct {
	Field string
	Apply func(v any) any
}

// applyTransforms runs transforms in order over a copy of the record.
// A record-level transform returning a non-map is a contract violation and
// yields *TransformShapeError, which callers propagate unconditionally.
func applyTransforms(record map[string]any, ts []Transform) (map[string]any, error) {
	if len(ts) == 0 {
		return record, nil
	}
	out := record
	for _, t := range ts {
		if t.Apply == nil {
			continue
		}
		if t.Field == "" {
			res := t.Apply(out)
			m, ok := res.(map[string]any)
			if !ok {
				return nil, &TransformShapeError{Got: res}
			}
			out = m
			continue
		}
		if v, present := out[t.Field]; present {
			out[t.Field] = t.Apply(v)
		}
	}
	return out, nil
}
