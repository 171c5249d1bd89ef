package configuration

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Struct level validation tags reported through validator.FieldError.Tag().
const (
	tagClusterWorkers     = "autoscale_xor_num_workers"
	tagTransformationKind = "column_order_xor_sql_query"
	tagUpsertKeys         = "upsert_requires_keys"
	tagDuplicateRules     = "unique_validation_rules"
	tagDuplicateTargets   = "unique_targets"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateCluster, Cluster{})
	v.RegisterStructValidation(validateSource, Source{})
	v.RegisterStructValidation(validateTransformation, Transformation{})
	v.RegisterStructValidation(validateDestination, Destination{})
	v.RegisterStructValidation(validateConfiguration, Configuration{})
	return v
}

// Validate checks c against every configuration rule. The returned error, if any, is a
// *ValidationError listing each problem found.
func Validate(c Configuration) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Problems = append(verr.Problems, describe(fe))
	}
	return verr
}

func validateCluster(sl validator.StructLevel) {
	c := sl.Current().Interface().(Cluster)

	hasWorkers := c.NumWorkers != nil && *c.NumWorkers != 0
	hasAutoscale := c.Autoscale != nil

	switch {
	case !hasWorkers && !hasAutoscale:
		sl.ReportError(c.NumWorkers, "num_workers", "NumWorkers", tagClusterWorkers, "none")
	case hasWorkers && hasAutoscale:
		sl.ReportError(c.NumWorkers, "num_workers", "NumWorkers", tagClusterWorkers, "both")
	}
}

func validateSource(sl validator.StructLevel) {
	s := sl.Current().Interface().(Source)
	reportDuplicateRules(sl, s.Validations)
}

func validateTransformation(sl validator.StructLevel) {
	t := sl.Current().Interface().(Transformation)

	switch {
	case t.ColumnOrder == nil && t.SQLQuery == "":
		sl.ReportError(t.SQLQuery, "sql_query", "SQLQuery", tagTransformationKind, "none")
	case t.ColumnOrder != nil && *t.ColumnOrder != 0 && t.SQLQuery != "":
		sl.ReportError(t.SQLQuery, "sql_query", "SQLQuery", tagTransformationKind, "both")
	}

	reportDuplicateRules(sl, t.Validations)
}

func validateDestination(sl validator.StructLevel) {
	d := sl.Current().Interface().(Destination)

	if d.Mode == "upsert" && (len(d.Keys) == 0 || d.SequenceBy == "") {
		sl.ReportError(d.Keys, "keys", "Keys", tagUpsertKeys, "")
	}

	reportDuplicateRules(sl, d.Validations)
}

func validateConfiguration(sl validator.StructLevel) {
	c := sl.Current().Interface().(Configuration)

	if dups := duplicates(c.Targets()); len(dups) > 0 {
		sl.ReportError(c, "targets", "Targets", tagDuplicateTargets, strings.Join(dups, ", "))
	}
}

func reportDuplicateRules(sl validator.StructLevel, validations []Validation) {
	fails := MultipleValidationsWithSameRule(validations)
	if len(fails) == 0 {
		return
	}

	rules := make([]string, 0, len(fails))
	for rule := range fails {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	var b strings.Builder
	for i, rule := range rules {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%q: [%s]", rule, strings.Join(fails[rule], ", "))
	}

	sl.ReportError(validations, "validations", "Validations", tagDuplicateRules, b.String())
}

// MultipleValidationsWithSameRule groups validations by their trimmed rule and returns the groups
// that contain more than one validation, mapped to the actions of that group.
func MultipleValidationsWithSameRule(validations []Validation) map[string][]string {
	groups := map[string][]string{}
	var order []string
	for _, v := range validations {
		rule := strings.TrimSpace(v.ValidationRule)
		if _, ok := groups[rule]; !ok {
			order = append(order, rule)
		}
		groups[rule] = append(groups[rule], v.ValidationAction)
	}

	fails := map[string][]string{}
	for _, rule := range order {
		if len(groups[rule]) > 1 {
			fails[rule] = groups[rule]
		}
	}
	return fails
}

func duplicates(values []string) []string {
	seen := map[string]int{}
	for _, v := range values {
		seen[v]++
	}

	var dups []string
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Strings(dups)
	return dups
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required and must not be empty", field)
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of [%s]", field, fmt.Sprint(fe.Value()), fe.Param())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must contain at most %s item(s)", field, fe.Param())
	case tagClusterWorkers:
		if fe.Param() == "both" {
			return fmt.Sprintf("%s: only one of autoscale or num_workers allowed", field)
		}
		return fmt.Sprintf("%s: no cluster defined, please provide either autoscale or num_workers", field)
	case tagTransformationKind:
		if fe.Param() == "both" {
			return fmt.Sprintf("%s: only one of column_order or sql_query allowed", field)
		}
		return fmt.Sprintf("%s: no transformation defined, please provide either a column_order or a sql_query", field)
	case tagUpsertKeys:
		return fmt.Sprintf("%s: mode upsert requires that keys and sequence_by are defined", field)
	case tagDuplicateRules:
		return fmt.Sprintf("%s: different actions for the same validation: %s", field, fe.Param())
	case tagDuplicateTargets:
		return fmt.Sprintf("duplicate 'target' values found: %s", fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
	}
}
