package configuration

import (
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Decode builds a Configuration from a generic document, normalizes it and validates it. Scalars
// are coerced the way YAML authors expect: numbers and booleans become strings where the model
// holds strings, and numeric strings become integers. Structural mismatches, such as a list where
// a string is expected, are errors. Keys that are not part of the model are ignored.
func Decode(doc map[string]interface{}) (Configuration, error) {
	if !hasStage(doc) {
		return Configuration{}, ErrNoStage
	}

	var c Configuration
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &c,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(scalarToString, stringToInt),
	})
	if err != nil {
		return Configuration{}, err
	}

	if err := decoder.Decode(doc); err != nil {
		return Configuration{}, &ValidationError{Problems: decodeProblems(err)}
	}

	if err := normalize(&c); err != nil {
		return Configuration{}, err
	}

	if err := Validate(c); err != nil {
		return Configuration{}, err
	}

	return c, nil
}

// scalarToString renders booleans and numbers decoded into string fields and string maps, such
// as spark_conf: {spark.sql.shuffle.partitions: 200}.
func scalarToString(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}

	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	default:
		return data, nil
	}
}

// stringToInt parses numeric strings decoded into integer fields. Strings that are not integers
// are left for the decoder to reject.
func stringToInt(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(reflect.ValueOf(data).String()))
	if err != nil {
		return data, nil
	}
	return n, nil
}

func hasStage(doc map[string]interface{}) bool {
	for _, stage := range Stages {
		if _, ok := doc[stage]; ok {
			return true
		}
	}
	return false
}

func decodeProblems(err error) []string {
	var merr *mapstructure.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []string{err.Error()}
}

// normalize applies the case conventions of the model and resolves local destination paths.
func normalize(c *Configuration) error {
	for i := range c.Clusters {
		c.Clusters[i].Label = strings.ToLower(c.Clusters[i].Label)
		if c.Clusters[i].Autoscale != nil {
			c.Clusters[i].Autoscale.Mode = strings.ToUpper(c.Clusters[i].Autoscale.Mode)
		}
	}

	for i := range c.Sources {
		normalizeValidations(c.Sources[i].Validations)
	}

	for i := range c.Transformations {
		normalizeValidations(c.Transformations[i].Validations)
	}

	for i := range c.Destinations {
		normalizeValidations(c.Destinations[i].Validations)

		path, err := absolutePath(c.Destinations[i].Path)
		if err != nil {
			return errors.Wrapf(err, "destination %q path", c.Destinations[i].Target)
		}
		c.Destinations[i].Path = path
	}

	return nil
}

func normalizeValidations(validations []Validation) {
	for i := range validations {
		validations[i].ValidationAction = strings.ToUpper(validations[i].ValidationAction)
	}
}

// absolutePath makes local relative paths absolute. Paths carrying a scheme, such as
// dbfs:/mnt/data or s3://bucket, are left untouched.
func absolutePath(p string) (string, error) {
	if p == "" || strings.Contains(p, ":/") || filepath.IsAbs(p) {
		return filepath.ToSlash(p), nil
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}
