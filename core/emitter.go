package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"curiochain/core/events"
	"curiochain/core/types"
	"curiochain/storage/journal"
)

// JournalEmitter persists every engine event into the hash-chained journal
// and feeds the event counters. Events that fail to journal are logged and
// dropped rather than failing the state transition that produced them.
type JournalEmitter struct {
	journal *journal.Journal
	logger  *slog.Logger
	nowFn   func() int64
}

func NewJournalEmitter(jnl *journal.Journal, logger *slog.Logger) *JournalEmitter {
	return &JournalEmitter{
		journal: jnl,
		logger:  logger,
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the timestamp source, primarily for tests.
func (e *JournalEmitter) SetNowFunc(now func() int64) {
	if now != nil {
		e.nowFn = now
	}
}

// Emit implements events.Emitter.
func (e *JournalEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	payload, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	record := payload.Event()
	if record == nil {
		return
	}
	emitterMetrics().recordEmitted(record.Type)
	if e.journal == nil {
		return
	}
	if _, err := e.journal.Append(record, e.nowFn()); err != nil {
		emitterMetrics().recordDropped(record.Type)
		if e.logger != nil {
			e.logger.Error("failed to journal event", "type", record.Type, "error", err)
		}
	}
}

var (
	emitterMetricsOnce   sync.Once
	sharedEmitterMetrics *journalEmitterMetrics
)

type journalEmitterMetrics struct {
	emitted metric.Int64Counter
	dropped metric.Int64Counter
}

func emitterMetrics() *journalEmitterMetrics {
	emitterMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("curiochain/core")
		emitted, err := meter.Int64Counter("curio.events.emitted")
		if err != nil {
			fallback := noop.NewMeterProvider().Meter("curiochain/core")
			emitted, _ = fallback.Int64Counter("curio.events.emitted")
		}
		dropped, err := meter.Int64Counter("curio.events.journal_dropped")
		if err != nil {
			fallback := noop.NewMeterProvider().Meter("curiochain/core")
			dropped, _ = fallback.Int64Counter("curio.events.journal_dropped")
		}
		sharedEmitterMetrics = &journalEmitterMetrics{emitted: emitted, dropped: dropped}
	})
	return sharedEmitterMetrics
}

func (m *journalEmitterMetrics) recordEmitted(eventType string) {
	if m == nil || m.emitted == nil {
		return
	}
	m.emitted.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", eventType)))
}

func (m *journalEmitterMetrics) recordDropped(eventType string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", eventType)))
}
