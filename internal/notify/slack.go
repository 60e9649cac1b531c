// Package notify ships failure detail to the configured chat webhook.
// Delivery is best-effort: alerting is observability, not correctness, so
// nothing here can fail the pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultMaxDetailLines = 15

var emojiByLevel = map[string]string{
	"success": ":white_check_mark:",
	"error":   ":rotating_light:",
	"warning": ":warning:",
	"info":    ":information_source:",
}

type Dispatcher struct {
	WebhookURL     string
	Client         *http.Client
	Logger         *slog.Logger
	MaxDetailLines int
}

func NewDispatcher(webhookURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		WebhookURL:     webhookURL,
		Client:         &http.Client{Timeout: 10 * time.Second},
		Logger:         logger,
		MaxDetailLines: DefaultMaxDetailLines,
	}
}

// Send posts the alert. Errors are swallowed and logged locally.
func (d *Dispatcher) Send(ctx context.Context, message, level string, details []string) {
	if d.WebhookURL == "" {
		d.log().Info("no webhook configured, skipping alert", slog.String("message", message))
		return
	}
	payload, err := json.Marshal(map[string]string{"text": d.buildText(message, level, details)})
	if err != nil {
		d.log().Error("alert payload marshal failed", slog.String("error", err.Error()))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		d.log().Error("alert request build failed", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		d.log().Error("alert delivery failed", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.log().Error("alert delivery rejected", slog.Int("status", resp.StatusCode))
		return
	}
	d.log().Info("alert delivered", slog.String("level", level))
}

func (d *Dispatcher) buildText(message, level string, details []string) string {
	var b strings.Builder
	if emoji, ok := emojiByLevel[level]; ok {
		b.WriteString(emoji)
		b.WriteString(" ")
	}
	b.WriteString(message)

	max := d.MaxDetailLines
	if max <= 0 {
		max = DefaultMaxDetailLines
	}
	truncated := details
	omitted := 0
	if len(details) > max {
		truncated = details[:max]
		omitted = len(details) - max
	}
	for _, detail := range truncated {
		b.WriteString("\n• ")
		b.WriteString(detail)
	}
	if omitted > 0 {
		b.WriteString(fmt.Sprintf("\n(+%d more omitted)", omitted))
	}
	return b.String()
}

func (d *Dispatcher) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
