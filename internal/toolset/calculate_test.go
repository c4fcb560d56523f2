package toolset

import (
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		expression string
		want       float64
		wantError  string
	}{
		{expression: "42 - 28", want: 14},
		{expression: "2 + 3 * 4", want: 14},
		{expression: "(2 + 3) * 4", want: 20},
		{expression: "10 / 4", want: 2.5},
		{expression: "-5 + 3", want: -2},
		{expression: "--5", want: 5},
		{expression: "2 * (3 + (4 - 1))", want: 12},
		{expression: "3.5 * 2", want: 7},
		{expression: "  7  ", want: 7},
		{expression: "1 / 0", wantError: "division by zero"},
		{expression: "(1 + 2", wantError: "missing closing parenthesis"},
		{expression: "", wantError: "unexpected end of expression"},
		{expression: "2 +", wantError: "unexpected end of expression"},
		{expression: "two + two", wantError: "unexpected"},
		{expression: "1 2", wantError: "unexpected"},
		{expression: "1.2.3", wantError: "invalid number"},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.expression, func(t *testing.T) {
			t.Parallel()

			got, err := evaluate(scenario.expression)
			if scenario.wantError != "" {
				if err == nil || !strings.Contains(err.Error(), scenario.wantError) {
					t.Fatalf("expected error containing %q, got %v", scenario.wantError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if math.Abs(got-scenario.want) > 1e-9 {
				t.Fatalf("got %v, want %v", got, scenario.want)
			}
		})
	}
}
