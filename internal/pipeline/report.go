package pipeline

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WriteReport renders a small HTML summary of the run for operators: gate
// outcomes, mart row counts, and vector store state.
func WriteReport(path string, out Outcome) error {
	var b strings.Builder
	b.WriteString("<html><head><title>Pipeline Report</title>")
	b.WriteString("<style>body{font-family:Arial;margin:2rem;}table{border-collapse:collapse;}td,th{border:1px solid #ccc;padding:4px 8px;}h2{margin-top:2rem;}.ok{color:#0a6;}.fail{color:#c00;}</style>")
	b.WriteString("</head><body>")
	b.WriteString("<h1>Quality-Gate Pipeline Report</h1>")
	fmt.Fprintf(&b, "<p>Generated: %s</p>", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "<p>Run: <code>%s</code></p>", html.EscapeString(out.RunID))

	statusClass := "ok"
	if out.Status != StatusDone {
		statusClass = "fail"
	}
	fmt.Fprintf(&b, "<p>Status: <span class='%s'>%s</span>", statusClass, out.Status)
	if out.HaltedAt != "" {
		fmt.Fprintf(&b, " (halted at %s)", html.EscapeString(out.HaltedAt))
	}
	b.WriteString("</p>")

	b.WriteString("<h2>Gates</h2><table><tr><th>Stage</th><th>Result</th><th>Severity</th><th>Detail</th></tr>")
	for _, res := range out.Results {
		result := "<span class='ok'>pass</span>"
		if !res.Passed {
			result = "<span class='fail'>fail</span>"
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(res.Stage), result, res.Severity,
			html.EscapeString(strings.Join(res.Detail, "; ")))
	}
	b.WriteString("</table>")

	if len(out.MartCounts) > 0 {
		b.WriteString("<h2>Mart Row Counts</h2><table><tr><th>Table</th><th>Rows</th></tr>")
		tables := make([]string, 0, len(out.MartCounts))
		for table := range out.MartCounts {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td></tr>", html.EscapeString(table), out.MartCounts[table])
		}
		b.WriteString("</table>")
	}

	b.WriteString("<h2>Vector Store</h2>")
	fmt.Fprintf(&b, "<p>Indexed vectors: %d</p>", out.VectorCount)
	if out.EmbeddingStats.Count > 0 {
		fmt.Fprintf(&b, "<p>Norm mean %.4f, std %.4f, range [%.4f, %.4f]</p>",
			out.EmbeddingStats.NormMean, out.EmbeddingStats.NormStd,
			out.EmbeddingStats.NormMin, out.EmbeddingStats.NormMax)
	}

	b.WriteString("</body></html>")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
