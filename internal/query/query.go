// Package query filters rendered documents with jq expressions.
package query

import (
	"bytes"
	"encoding/json"

	"github.com/itchyny/gojq"
	"github.com/pkg/errors"
)

// Filter runs the jq expression filter against v and writes every result to a new line. String
// results are written raw, anything else as JSON. Null results are skipped. v is converted to its
// JSON representation before filtering so struct tags decide the field names.
func Filter(v interface{}, filter string) ([]byte, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, errors.Wrap(err, "parse query")
	}

	input, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}

	var result bytes.Buffer
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if v == nil {
			continue
		}

		switch vv := v.(type) {
		case error:
			return nil, errors.Wrap(vv, "error while filtering with gojq")
		case string:
			result.WriteString(vv)
		default:
			marshalled, err := json.Marshal(vv)
			if err != nil {
				return nil, errors.Wrap(err, "error marshalling jq result")
			}
			result.Write(marshalled)
		}
		result.WriteRune('\n')
	}

	return bytes.TrimSuffix(result.Bytes(), []byte("\n")), nil
}

func toJSONValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return input, nil
}
