// Package sanitize normalizes generic documents, such as decoded JSON, before they are written to
// metadata tables. Empty values are turned into nil and, optionally, dropped entirely.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MaxDepth is the deepest level of nesting EmptyObjects will descend into before giving up.
// Self-referencing maps would otherwise recurse forever.
const MaxDepth = 512

// ErrMaxDepth indicates a document was nested deeper than MaxDepth.
var ErrMaxDepth = errors.New("maximum nesting depth exceeded")

// ErrUnsupportedType indicates EmptyObjects received something other than a map or a slice.
var ErrUnsupportedType = errors.New("object must be a map or a slice")

// EmptyObjects sanitizes a map or slice document. Empty values become nil, dots in keys become
// underscores and non-string keys are stringified. When dropEmpty is set, nil values are removed
// from the result. A nil document is returned as is.
func EmptyObjects(v interface{}, dropEmpty bool) (interface{}, error) {
	switch o := v.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}, map[interface{}]interface{}:
		return fields(o, dropEmpty, 0)
	case []interface{}:
		return elements(o, dropEmpty, 0)
	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "got %T: %v", v, v)
	}
}

// Object sanitizes a single value without dropping anything.
func Object(v interface{}) (interface{}, error) {
	return object(v, false, 0)
}

// ListElements sanitizes every element of l, replacing empty elements with nil.
func ListElements(l []interface{}) ([]interface{}, error) {
	return elements(l, false, 0)
}

// DictFields sanitizes every field of m, replacing empty values with nil.
func DictFields(m map[string]interface{}) (map[string]interface{}, error) {
	return fields(m, false, 0)
}

func object(v interface{}, dropEmpty bool, depth int) (interface{}, error) {
	if depth > MaxDepth {
		return nil, ErrMaxDepth
	}

	if IsEmpty(v) {
		return nil, nil
	}

	switch o := v.(type) {
	case map[string]interface{}, map[interface{}]interface{}:
		return fields(o, dropEmpty, depth+1)
	case []interface{}:
		return elements(o, dropEmpty, depth+1)
	default:
		return v, nil
	}
}

func elements(l []interface{}, dropEmpty bool, depth int) ([]interface{}, error) {
	out := make([]interface{}, 0, len(l))
	for _, e := range l {
		s, err := object(e, dropEmpty, depth)
		if err != nil {
			return nil, err
		}

		if s == nil && dropEmpty {
			continue
		}
		out = append(out, s)
	}

	return out, nil
}

func fields(m interface{}, dropEmpty bool, depth int) (map[string]interface{}, error) {
	out := map[string]interface{}{}

	set := func(k string, v interface{}) error {
		s, err := object(v, dropEmpty, depth)
		if err != nil {
			return err
		}

		if s == nil && dropEmpty {
			return nil
		}
		out[strings.ReplaceAll(k, ".", "_")] = s
		return nil
	}

	switch d := m.(type) {
	case map[string]interface{}:
		for k, v := range d {
			if err := set(k, v); err != nil {
				return nil, err
			}
		}
	case map[interface{}]interface{}:
		for k, v := range d {
			if err := set(fmt.Sprint(k), v); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// IsEmpty reports whether v is considered empty. Blank strings are empty. Maps and slices are
// empty when none of their values is truthy and none of them is a bool or a number, so
// {"enabled": false}, [0] and [0.0] are kept. Integers and floats are treated alike since decoded
// JSON carries every number as float64.
func IsEmpty(v interface{}) bool {
	switch o := v.(type) {
	case string:
		return strings.TrimSpace(o) == ""
	case map[string]interface{}:
		for _, e := range o {
			if truthy(e) || scalar(e) {
				return false
			}
		}
		return true
	case map[interface{}]interface{}:
		for _, e := range o {
			if truthy(e) || scalar(e) {
				return false
			}
		}
		return true
	case []interface{}:
		for _, e := range o {
			if truthy(e) || scalar(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func truthy(v interface{}) bool {
	switch o := v.(type) {
	case nil:
		return false
	case string:
		return o != ""
	case map[string]interface{}:
		return len(o) > 0
	case map[interface{}]interface{}:
		return len(o) > 0
	case []interface{}:
		return len(o) > 0
	default:
		return true
	}
}

func scalar(v interface{}) bool {
	switch v.(type) {
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
