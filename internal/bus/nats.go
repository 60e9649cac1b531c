package bus

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const (
	SubjectGateFailed   = "pipeline.gate.failed"
	SubjectRunCompleted = "pipeline.run.completed"
)

type GateEvent struct {
	RunID    string   `json:"run_id"`
	Stage    string   `json:"stage"`
	Severity string   `json:"severity"`
	Detail   []string `json:"detail"`
}

type RunEvent struct {
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	HaltedAt string `json:"halted_at,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// Publisher emits pipeline events. A nil Publisher is valid and publishes
// nothing, so the bus stays optional.
type Publisher struct {
	Conn   *nats.Conn
	Logger *slog.Logger
}

func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{Conn: conn, Logger: logger}, nil
}

func (p *Publisher) Close() {
	if p == nil || p.Conn == nil {
		return
	}
	p.Conn.Drain()
	p.Conn.Close()
}

func (p *Publisher) PublishGateFailure(evt GateEvent) {
	p.publish(SubjectGateFailed, evt)
}

func (p *Publisher) PublishRunOutcome(evt RunEvent) {
	p.publish(SubjectRunCompleted, evt)
}

func (p *Publisher) publish(subject string, evt any) {
	if p == nil || p.Conn == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := p.Conn.Publish(subject, data); err != nil && p.Logger != nil {
		p.Logger.Error("event publish failed", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}
