package ledger

import (
	"context"
	"time"

	"hydrofund/internal/models"

	"github.com/shopspring/decimal"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)              {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                                      {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                                     {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, decimal.Decimal, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordReplay(models.EntryReason)                            {}
func (n *NoopMetricsCollector) RecordError(string, string)                                 {}

// NoopCache never holds anything. Used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetWallet(context.Context, uint) (*models.Wallet, error) { return nil, nil }
func (NoopCache) CacheWallet(context.Context, *models.Wallet) error       { return nil }
func (NoopCache) InvalidateWallet(context.Context, uint) error            { return nil }
