package session

import (
	"encoding/json"
	"strings"
)

// Values written by this package carry a tag so a stored string never comes
// back as a decoded JSON primitive ("123" stays the string "123").
const (
	tagString = "s:"
	tagJSON   = "j:"
)

func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return tagString + v, nil
	case json.RawMessage:
		return tagJSON + string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return tagJSON + string(b), nil
	}
}

// decodeValue reverses encodeValue. Untagged values (written by other tools)
// are JSON-decoded when possible and returned raw otherwise.
func decodeValue(raw string) any {
	if s, ok := strings.CutPrefix(raw, tagString); ok {
		return s
	}
	if payload, ok := strings.CutPrefix(raw, tagJSON); ok {
		return decodeOrRaw(payload)
	}
	return decodeOrRaw(raw)
}

// payload strips the tag, leaving the text to unmarshal into a typed value.
func payload(raw string) string {
	if s, ok := strings.CutPrefix(raw, tagString); ok {
		return s
	}
	if s, ok := strings.CutPrefix(raw, tagJSON); ok {
		return s
	}
	return raw
}

func decodeOrRaw(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
