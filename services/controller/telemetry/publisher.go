// Package telemetry streams decision events to Kafka for downstream
// dashboards and audit. Publishing is best effort: a broker outage is logged
// and never blocks or fails a decision.
package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mossline/verdant-controller/services/controller/engine"
)

// Event is the wire form of one decision, keyed by device.
type Event struct {
	DeviceID    string            `json:"deviceId"`
	SampleID    string            `json:"sampleId"`
	Command     engine.Command    `json:"command"`
	Statuses    engine.StatusSet  `json:"statuses"`
	DoseAction  engine.DoseAction `json:"doseAction"`
	DoseReason  string            `json:"doseReason"`
	MotorReason string            `json:"motorReason"`
	BusyUntil   *time.Time        `json:"busyUntil,omitempty"`
	DecidedAt   time.Time         `json:"decidedAt"`
}

// Publisher writes decision events to a Kafka topic. A nil Publisher is
// valid and publishes nothing, so callers need no enabled-check.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// New builds a publisher for the given brokers and topic.
func New(brokers []string, topic string, log *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &Publisher{writer: w, log: log}
}

// Publish emits one decision event. Errors are logged, not returned.
func (p *Publisher) Publish(ctx context.Context, sampleID string, d engine.Decision) {
	if p == nil {
		return
	}
	evt := Event{
		DeviceID:    d.DeviceID,
		SampleID:    sampleID,
		Command:     d.Command,
		Statuses:    d.Statuses,
		DoseAction:  d.Dose.Action,
		DoseReason:  d.Dose.Reason,
		MotorReason: d.MotorReason,
		BusyUntil:   d.Dose.BusyUntil,
		DecidedAt:   d.DecidedAt,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		p.log.Error("marshal decision event failed", "err", err, "deviceId", d.DeviceID)
		return
	}
	msg := kafka.Message{Key: []byte(d.DeviceID), Value: b, Time: d.DecidedAt}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write failed", "err", err, "deviceId", d.DeviceID)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
