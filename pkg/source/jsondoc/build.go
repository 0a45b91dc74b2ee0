package jsondoc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// DefaultPriorityFields are the fields that name an array element, in order.
var DefaultPriorityFields = []string{"name", "username", "title", "id"}

// Options controls labeling and ordering.
type Options struct {
	// PriorityFields overrides DefaultPriorityFields when non-nil.
	PriorityFields []string
	Collation      tree.Collation
}

func (o Options) priority() []string {
	if o.PriorityFields != nil {
		return o.PriorityFields
	}
	return DefaultPriorityFields
}

// Build converts a decoded value into a tree rooted at a node labeled label.
// Every node is returned loaded.
func Build(label string, value interface{}, opts Options) *tree.Node {
	return build(label, "", value, opts)
}

func build(label, key string, value interface{}, opts Options) *tree.Node {
	switch v := value.(type) {
	case []interface{}:
		children := make([]*tree.Node, 0, len(v))
		for i, item := range v {
			itemKey := "[" + strconv.Itoa(i) + "]"
			itemLabel, exclude := elementLabel(itemKey, item, opts.priority())
			child := build(itemLabel, itemKey, item, opts)
			if exclude != "" {
				child = without(child, exclude)
			}
			children = append(children, child)
		}
		return tree.New(tree.KindJSONValue, label, tree.WithKey(key), tree.WithChildren(children))

	case map[string]interface{}:
		keys := sortedKeys(v, opts.Collation)
		children := make([]*tree.Node, 0, len(keys))
		for _, k := range keys {
			children = append(children, build(k, k, v[k], opts))
		}
		return tree.New(tree.KindJSONValue, label, tree.WithKey(key), tree.WithChildren(children))

	default:
		return tree.New(tree.KindJSONValue, label+": "+Stringify(v), tree.WithKey(key))
	}
}

// elementLabel picks the label of an array element: the first priority field
// that is present and non-null, or the positional label.
func elementLabel(positional string, item interface{}, fields []string) (label, field string) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return positional, ""
	}
	for _, f := range fields {
		if val, present := obj[f]; present && val != nil {
			return Stringify(val), f
		}
	}
	return positional, ""
}

// without rebuilds n minus the child whose key is field.
func without(n *tree.Node, field string) *tree.Node {
	kept := make([]*tree.Node, 0, len(n.Children()))
	for _, c := range n.Children() {
		if c.Key() != field {
			kept = append(kept, c)
		}
	}
	return tree.New(n.Kind(), n.Label(), tree.WithKey(n.Key()), tree.WithChildren(kept))
}

// Stringify renders a decoded value the way it is shown in labels. Objects
// and arrays become compact JSON.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return formatNumber(string(t))
	case float64:
		return formatFloat(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// formatNumber prints integer literals verbatim and everything else in the
// shortest round-trip form.
func formatNumber(s string) string {
	if !strings.ContainsAny(s, ".eE") {
		if s == "-0" {
			return "0"
		}
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return formatFloat(f)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes e-07 and e+21, labels use e-7 and e+21.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
