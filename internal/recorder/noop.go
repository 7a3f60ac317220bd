package recorder

import "RiskSentinel/internal/model"

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunRecord) error      { return nil }
func (n *NoopRecorder) RecordAlerts(_ []model.Alert) error { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
