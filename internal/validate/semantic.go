package validate

import (
	"context"
	"fmt"
	"strings"

	"dataplatform/quality-gate/internal/gate"
)

// TableInspector is the slice of the warehouse repository the semantic
// validator needs; tests substitute a mock.
type TableInspector interface {
	RowCount(ctx context.Context, table string) (int64, error)
	TableColumns(ctx context.Context, table string) ([]string, error)
	NullCount(ctx context.Context, table, column string) (int64, error)
	DistinctCount(ctx context.Context, table, column string) (int64, error)
	TextLengthViolations(ctx context.Context, table, idColumn, textColumn string, minChars, maxChars, limit int) ([]string, error)
}

// Checklist is the fixed set of semantic assertions run against the curated table.
type Checklist struct {
	Table          string
	RowCountMin    int64
	RowCountMax    int64
	Columns        []string
	KeyColumn      string
	NotNullColumns []string
	TextColumn     string
	TextMinChars   int
	TextMaxChars   int
}

type SemanticValidator struct {
	Repo      TableInspector
	Checklist Checklist
}

// Run executes every check even after the first failure so one alert carries
// the complete detail list. Severity is always blocking.
func (v *SemanticValidator) Run(ctx context.Context) gate.Result {
	c := v.Checklist
	details := []string{}

	rowCount, rowErr := v.Repo.RowCount(ctx, c.Table)
	if rowErr != nil {
		details = append(details, fmt.Sprintf("%s: row count query failed: %v", c.Table, rowErr))
	} else if rowCount < c.RowCountMin || rowCount > c.RowCountMax {
		details = append(details, fmt.Sprintf(
			"%s: row count %d outside [%d, %d]", c.Table, rowCount, c.RowCountMin, c.RowCountMax))
	}

	if len(c.Columns) > 0 {
		columns, err := v.Repo.TableColumns(ctx, c.Table)
		if err != nil {
			details = append(details, fmt.Sprintf("%s: column introspection failed: %v", c.Table, err))
		} else if !equalColumns(columns, c.Columns) {
			details = append(details, fmt.Sprintf(
				"%s: columns [%s] do not match expected [%s]",
				c.Table, strings.Join(columns, ", "), strings.Join(c.Columns, ", ")))
		}
	}

	for _, column := range c.NotNullColumns {
		nulls, err := v.Repo.NullCount(ctx, c.Table, column)
		if err != nil {
			details = append(details, fmt.Sprintf("%s.%s: null check failed: %v", c.Table, column, err))
			continue
		}
		if nulls > 0 {
			details = append(details, fmt.Sprintf("%s.%s: %d null values", c.Table, column, nulls))
		}
	}

	if c.KeyColumn != "" && rowErr == nil {
		distinct, err := v.Repo.DistinctCount(ctx, c.Table, c.KeyColumn)
		if err != nil {
			details = append(details, fmt.Sprintf("%s.%s: uniqueness check failed: %v", c.Table, c.KeyColumn, err))
		} else if distinct != rowCount {
			details = append(details, fmt.Sprintf(
				"%s.%s: %d distinct keys for %d rows", c.Table, c.KeyColumn, distinct, rowCount))
		}
	}

	if c.TextColumn != "" {
		ids, err := v.Repo.TextLengthViolations(ctx, c.Table, c.KeyColumn, c.TextColumn, c.TextMinChars, c.TextMaxChars, 50)
		if err != nil {
			details = append(details, fmt.Sprintf("%s.%s: length check failed: %v", c.Table, c.TextColumn, err))
		} else if len(ids) > 0 {
			details = append(details, fmt.Sprintf(
				"%s.%s: %d rows with length outside [%d, %d] chars (e.g. %s)",
				c.Table, c.TextColumn, len(ids), c.TextMinChars, c.TextMaxChars, ids[0]))
		}
	}

	if len(details) > 0 {
		return gate.Fail(gate.StageSemantic, gate.SeverityBlocking, details...)
	}
	return gate.Pass(gate.StageSemantic)
}

func equalColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
