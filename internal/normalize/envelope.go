// Package normalize absorbs the inconsistent response shapes of the Dentago
// API so repositories never branch on envelope layout themselves.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// ErrUnrecognizedShape is returned when no probe matches a payload.
var ErrUnrecognizedShape = errors.New("normalize: unrecognized response shape")

// collectionKeys name the fields that wrap a resource list.
var collectionKeys = []string{"doctors", "appointments", "items"}

// envelopeKeys mark a mapping as an envelope rather than a map keyed by id.
var envelopeKeys = []string{"success", "data", "message", "error", "doctors", "appointments", "items"}

// Decode parses a JSON body keeping numbers as json.Number.
func Decode(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnrecognizedShape)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return v, nil
}

// ListProbe inspects a payload and reports whether it recognised the shape.
type ListProbe struct {
	Name  string
	Match func(payload any) ([]any, bool, error)
}

// ListProbes is the ordered probe list used by ExtractList.
var ListProbes = []ListProbe{
	{Name: "sequence", Match: probeSequence},
	{Name: "success-data", Match: probeSuccessData},
	{Name: "collection-field", Match: probeCollectionField},
	{Name: "keyed-map", Match: probeKeyedMap},
}

// ExtractList returns the resource list carried by payload.
func ExtractList(payload any) ([]any, error) {
	return ExtractListWith(ListProbes, payload)
}

// ExtractListWith runs probes in order; the first match wins.
func ExtractListWith(probes []ListProbe, payload any) ([]any, error) {
	for _, p := range probes {
		list, ok, err := p.Match(payload)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", p.Name, err)
		}
		if ok {
			return list, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnrecognizedShape, describe(payload))
}

func probeSequence(payload any) ([]any, bool, error) {
	list, ok := payload.([]any)
	return list, ok, nil
}

func probeSuccessData(payload any) ([]any, bool, error) {
	m, ok := payload.(map[string]any)
	if !ok || !isTrue(m["success"]) {
		return nil, false, nil
	}
	data, ok := m["data"]
	if !ok {
		return nil, false, nil
	}
	switch d := data.(type) {
	case nil:
		return []any{}, true, nil
	case []any:
		return d, true, nil
	case map[string]any:
		if list, ok, err := probeCollectionField(d); ok || err != nil {
			return list, ok, err
		}
		return probeKeyedMap(d)
	default:
		return nil, false, fmt.Errorf("%w: data is %s", ErrUnrecognizedShape, describe(data))
	}
}

func probeCollectionField(payload any) ([]any, bool, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	for _, key := range collectionKeys {
		v, present := m[key]
		if !present {
			continue
		}
		switch list := v.(type) {
		case nil:
			return []any{}, true, nil
		case []any:
			return list, true, nil
		default:
			return nil, false, fmt.Errorf("%w: %s is %s", ErrUnrecognizedShape, key, describe(v))
		}
	}
	return nil, false, nil
}

// probeKeyedMap handles endpoints answering with {"<id>": {...}, ...}.
// Values are returned ordered by key.
func probeKeyedMap(payload any) ([]any, bool, error) {
	m, ok := payload.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false, nil
	}
	for _, key := range envelopeKeys {
		if _, present := m[key]; present {
			return nil, false, nil
		}
	}
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if _, isObject := v.(map[string]any); !isObject {
			return nil, false, nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out, true, nil
}

// objectKeys wrap a single resource, in probe order.
var objectKeys = []string{"user", "doctor", "appointment", "data", "item"}

// ExtractObject returns the single resource carried by payload. A mapping
// that carries its own identifier is the resource, even when it embeds
// related objects under wrapper-like keys such as "doctor".
func ExtractObject(payload any) (map[string]any, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedShape, describe(payload))
	}
	if isTrue(m["success"]) {
		if data, ok := m["data"].(map[string]any); ok {
			return unwrapObject(data), nil
		}
	}
	if hasID(m) {
		return m, nil
	}
	for _, key := range objectKeys {
		if inner, ok := m[key].(map[string]any); ok {
			return inner, nil
		}
	}
	if _, hasSuccess := m["success"]; hasSuccess && !isTrue(m["success"]) {
		return nil, fmt.Errorf("%w: success=false", ErrUnrecognizedShape)
	}
	return m, nil
}

func unwrapObject(m map[string]any) map[string]any {
	if hasID(m) {
		return m
	}
	for _, key := range []string{"appointment", "doctor", "user", "item"} {
		if inner, ok := m[key].(map[string]any); ok {
			return inner
		}
	}
	return m
}

func hasID(m map[string]any) bool {
	_, ok := Record(m).Value("id")
	return ok
}

// SuccessFlag reports whether payload is a mapping with success == true.
func SuccessFlag(payload any) bool {
	m, ok := payload.(map[string]any)
	return ok && isTrue(m["success"])
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return fmt.Sprintf("object with %d keys", len(t))
	default:
		return fmt.Sprintf("%T", v)
	}
}
