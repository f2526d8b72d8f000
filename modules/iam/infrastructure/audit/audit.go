// Package audit provides AuditSink implementations for authorization
// decisions.
package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
)

// ZapSink writes audit records to the operational log.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapSink{log: log.Named("authz-audit")}
}

var _ ports.AuditSink = (*ZapSink)(nil)

func (s *ZapSink) Emit(_ context.Context, rec ports.AuditRecord) error {
	s.log.Info("authorization decision",
		zap.Time("at", rec.At),
		zap.String("principal", rec.PrincipalID),
		zap.String("tenant", rec.TenantID),
		zap.String("resource", rec.Resource),
		zap.String("action", rec.Action),
		zap.String("decision", rec.Decision),
		zap.String("reason", rec.Reason),
	)
	return nil
}

// FanoutSink emits to every sink and returns the first error. Later sinks
// still run after an earlier failure.
type FanoutSink struct {
	sinks []ports.AuditSink
}

func NewFanoutSink(sinks ...ports.AuditSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

var _ ports.AuditSink = (*FanoutSink)(nil)

func (s *FanoutSink) Emit(ctx context.Context, rec ports.AuditRecord) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Emit(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MemorySink collects records for tests.
type MemorySink struct {
	mu      sync.Mutex
	Records []ports.AuditRecord
}

var _ ports.AuditSink = (*MemorySink)(nil)

func (s *MemorySink) Emit(_ context.Context, rec ports.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, rec)
	return nil
}

func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Records)
}
