package ledger

import (
	"time"

	"borewell/internal/models"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)         {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)                  {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                                 {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                                {}
func (n *NoopMetricsCollector) RecordBalanceChange(models.PartyRef, float64, float64) {}
func (n *NoopMetricsCollector) RecordError(string, string)                            {}
