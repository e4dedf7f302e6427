package spec

import (
	"encoding/json"
	"errors"
)

// LoadCommonParameters reads the common-parameters document and normalizes it
// by patching it against an empty baseline.
func LoadCommonParameters(path string, ov EndpointOverrides, w *Warnings) (map[string]*QueryParameter, error) {
	doc, err := readDocument(path)
	if err != nil {
		var se *SpecError
		if errors.As(err, &se) && se.Code == InputError {
			se.Code = MissingPrerequisite
		}
		return nil, err
	}
	return commonFromDocument(path, doc, ov, w)
}

func commonFromDocument(path string, doc Document, ov EndpointOverrides, w *Warnings) (map[string]*QueryParameter, error) {
	raw, ok := doc["params"]
	if !ok {
		return nil, newSpecError(ParseError, path, nil, "%s has no params section", commonLabel)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, newSpecError(ParseError, path, err, "encode common params: %v", err)
	}
	var params map[string]*QueryParameter
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, newSpecError(ParseError, path, err, "decode common params: %v", err)
	}
	return PatchParameters(commonLabel, params, nil, ov, w), nil
}
