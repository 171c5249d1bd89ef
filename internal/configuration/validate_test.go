package configuration_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/pushcart/pushcart-deploy/internal/configuration"
)

func TestMultipleValidationsWithSameRule(t *testing.T) {
	cases := []struct {
		Name        string
		Validations []Validation
		Expected    map[string][]string
	}{
		{
			Name: "OneRuleMultipleValidations",
			Validations: []Validation{
				{ValidationRule: "rule1", ValidationAction: "action1"},
				{ValidationRule: "rule1", ValidationAction: "action2"},
				{ValidationRule: "rule1", ValidationAction: "action3"},
			},
			Expected: map[string][]string{"rule1": {"action1", "action2", "action3"}},
		},
		{
			Name: "DifferentRules",
			Validations: []Validation{
				{ValidationRule: "rule1", ValidationAction: "action1"},
				{ValidationRule: "rule2", ValidationAction: "action2"},
				{ValidationRule: "rule1", ValidationAction: "action3"},
			},
			Expected: map[string][]string{"rule1": {"action1", "action3"}},
		},
		{
			Name:     "Empty",
			Expected: map[string][]string{},
		},
		{
			Name:        "OneValidation",
			Validations: []Validation{{ValidationRule: "rule1", ValidationAction: "LOG"}},
			Expected:    map[string][]string{},
		},
		{
			Name: "DuplicateValidations",
			Validations: []Validation{
				{ValidationRule: "rule1", ValidationAction: "LOG"},
				{ValidationRule: "rule1 ", ValidationAction: "LOG"},
			},
			Expected: map[string][]string{"rule1": {"LOG", "LOG"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			got := MultipleValidationsWithSameRule(tc.Validations)
			if !cmp.Equal(got, tc.Expected) {
				t.Fatal(cmp.Diff(tc.Expected, got))
			}
		})
	}
}
