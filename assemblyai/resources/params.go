package resources

import (
	"encoding/json"
	"fmt"
)

// Validator is implemented by request types that check their own
// required fields.
type Validator interface {
	Validate() error
}

// BuildParams merges a derived field into sparse optional params and decodes
// the result into the complete request type T.
//
// optional is encoded to a JSON object, field is set to value, overriding
// anything optional carried under the same key, and the object is decoded
// into T. If T (or *T) implements Validator the result is validated. A nil
// optional is treated as an empty object.
func BuildParams[T any](field string, value any, optional any) (*T, error) {
	merged := map[string]any{}
	if optional != nil {
		data, err := json.Marshal(optional)
		if err != nil {
			return nil, &ParamsError{Reason: "cannot encode optional params", Err: err}
		}
		if string(data) != "null" {
			if err := json.Unmarshal(data, &merged); err != nil {
				return nil, &ParamsError{Reason: "optional params must encode to a JSON object", Err: err}
			}
		}
	}
	merged[field] = value

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, &ParamsError{Field: field, Reason: "cannot encode merged params", Err: err}
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ParamsError{Field: field, Reason: fmt.Sprintf("cannot decode into %T", out), Err: err}
	}

	if v, ok := any(&out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &out, nil
}
