// Package jsondoc turns JSON and YAML documents into fully loaded trees.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Parse decodes a single JSON value. Numbers are kept as json.Number.
func Parse(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", tree.ErrMalformedInput)
		}
		return nil, fmt.Errorf("%w: %v", tree.ErrMalformedInput, err)
	}
	var extra interface{}
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the top-level value", tree.ErrMalformedInput)
	}
	return v, nil
}

// ParseYAML decodes the first document of a YAML stream into the same shape
// Parse produces: string-keyed maps, slices, json.Number, string, bool and nil.
func ParseYAML(data []byte) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", tree.ErrMalformedInput, err)
	}
	if v == nil && len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", tree.ErrMalformedInput)
	}
	return normalizeYAML(v), nil
}

func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}

// sortedKeys returns the keys of an object in collation order.
func sortedKeys(m map[string]interface{}, c tree.Collation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tree.SortStrings(keys, c)
	return keys
}
