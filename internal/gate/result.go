package gate

// Severity classifies how the orchestrator reacts to a failed gate.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityBlocking Severity = "blocking"
)

// Stage names as they appear on results and in run outcomes.
const (
	StageStructural = "STRUCTURAL"
	StageSemantic   = "SEMANTIC"
	StageAnomaly    = "ANOMALY"
	StageRefresh    = "EMBEDDING_REFRESH"
	StageDrift      = "DRIFT"
	StageVerify     = "VERIFY"
)

// Result is the outcome of one validation stage. Created fresh each run,
// never persisted beyond it except inside alert payloads.
type Result struct {
	Stage    string   `json:"stage"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Detail   []string `json:"detail,omitempty"`
}

func Pass(stage string, detail ...string) Result {
	return Result{Stage: stage, Passed: true, Severity: SeverityInfo, Detail: detail}
}

func Fail(stage string, severity Severity, detail ...string) Result {
	return Result{Stage: stage, Passed: false, Severity: severity, Detail: detail}
}
