package sdkdb

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Kind defines the shapes of data the comparator will encounter while walking
// two snapshot trees
type Kind uint8

const (
	// KindScalar covers strings, numbers, booleans & null. It's also the
	// fallback for any value no classifier recognises
	KindScalar Kind = iota
	// KindSequence is an ordered list of values, []interface{}
	KindSequence
	// KindMapping is a set of string keys pointing at values,
	// map[string]interface{}
	KindMapping
)

// String implements the fmt.Stringer interface
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Classifier reports the Kind of a value, returning false if it doesn't
// recognise the value. Classifiers let package consumers introduce new kinds
// of tree value without touching the built-in ones
type Classifier func(v interface{}) (Kind, bool)

// KindOf returns the built-in Kind of a tree value
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case map[string]interface{}:
		return KindMapping
	case []interface{}:
		return KindSequence
	default:
		return KindScalar
	}
}

// sortedKeys returns the keys of a mapping in lexical order so reports are
// stable across runs
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// numeric converts any go number to float64. YAML decoding produces ints where
// JSON decoding produces float64, both need to compare equal
func numeric(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// scalarEqual is deep value equality for leaves
func scalarEqual(a, b interface{}) bool {
	if af, ok := numeric(a); ok {
		if bf, ok := numeric(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// FormatValue renders a tree value the way it's printed in diagnostics.
// scalars print bare, compound values print as compact JSON
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	}
	if f, ok := numeric(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
