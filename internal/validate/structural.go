package validate

import (
	"context"
	"fmt"

	"dataplatform/quality-gate/internal/gate"
)

// TestReport is the translated outcome of the transformation layer's own
// row-level test suite.
type TestReport struct {
	Passed bool
	Failed []string
}

type StructuralRunner interface {
	Run(ctx context.Context) (TestReport, error)
}

type StructuralValidator struct {
	Runner StructuralRunner
}

// Run surfaces the external test suite result. Schema or referential
// breakage must never propagate, so any failure is blocking.
func (v *StructuralValidator) Run(ctx context.Context) gate.Result {
	report, err := v.Runner.Run(ctx)
	if err != nil {
		return gate.Fail(gate.StageStructural, gate.SeverityBlocking,
			fmt.Sprintf("structural test execution failed: %v", err))
	}
	if !report.Passed {
		details := make([]string, 0, len(report.Failed))
		for _, name := range report.Failed {
			details = append(details, fmt.Sprintf("failing test: %s", name))
		}
		if len(details) == 0 {
			details = append(details, "structural tests failed (no detail reported)")
		}
		return gate.Fail(gate.StageStructural, gate.SeverityBlocking, details...)
	}
	return gate.Pass(gate.StageStructural)
}
